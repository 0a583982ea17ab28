// Command medimatch searches medicines through the medimatch HTTP API.
package main

func main() {
	Execute()
}
