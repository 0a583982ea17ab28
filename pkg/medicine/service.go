package medicine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/medimatch/medimatch/pkg/ingredient"
)

// Upstream endpoint paths, relative to the service base URL.
const (
	EndpointDrugInfo         = "DrbEasyDrugInfoService/getDrbEasyDrugList"
	EndpointIngredientDetail = "DrugPrdtPrmsnInfoService06/getDrugPrdtPrmsnDtlInq05"
	EndpointPermissionList   = "DrugPrdtPrmsnInfoService06/getDrugPrdtPrmsnInq06"
)

// resultCodeNoData is returned by some services instead of an empty list.
const resultCodeNoData = "03"

// Getter performs a GET against an upstream endpoint. The implementation is
// responsible for authentication (the service key); *client.Client
// satisfies it.
type Getter interface {
	Get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error)
}

// Config holds service settings.
type Config struct {
	// NumOfRows is the page size for list operations.
	NumOfRows int
}

// DefaultConfig returns the page size used by the web front end.
func DefaultConfig() Config {
	return Config{NumOfRows: DefaultNumOfRows}
}

// ResultError is a non-normal result code in an otherwise successful
// response.
type ResultError struct {
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("upstream result %s: %s", e.Code, e.Message)
}

// SearchParams are the parameters of a medicine search.
type SearchParams struct {
	Query  string
	Type   SearchType
	PageNo int
}

// Profile is everything shown on a medicine's detail page.
type Profile struct {
	Medicine         *MedicineItem                 `json:"medicine"`
	Ingredient       *IngredientItem               `json:"ingredient"`
	Ingredients      []ingredient.ParsedIngredient `json:"ingredients"`
	MainIngredients  []string                      `json:"mainIngredients"`
	IngredientFailed bool                          `json:"ingredientFailed,omitempty"`
}

// Service implements the medicine operations on top of a Getter.
type Service struct {
	upstream Getter
	config   Config
	logger   zerolog.Logger
}

// NewService creates a medicine service.
func NewService(upstream Getter, config Config, logger zerolog.Logger) *Service {
	if config.NumOfRows <= 0 {
		config.NumOfRows = DefaultNumOfRows
	}
	return &Service{
		upstream: upstream,
		config:   config,
		logger:   logger.With().Str("component", "medicine").Logger(),
	}
}

// Search lists medicines by product name or by efficacy text. An empty
// query returns nil without calling upstream.
func (s *Service) Search(ctx context.Context, p SearchParams) (*MedicineResponse, error) {
	if p.Query == "" {
		return nil, nil
	}

	params := s.listParams(p.PageNo)
	switch p.Type {
	case SearchTypeMedicine:
		params.Set("itemName", p.Query)
	case SearchTypeSymptom:
		params.Set("efcyQesitm", p.Query)
	default:
		return nil, ErrSearchParamsRequired
	}

	var resp MedicineResponse
	if err := s.get(ctx, EndpointDrugInfo, params, &resp); err != nil {
		s.logger.Error().Err(err).Str("query", p.Query).Str("search_type", string(p.Type)).Msg("Medicine search failed")
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	return &resp, nil
}

// Detail returns one medicine by its item code.
func (s *Service) Detail(ctx context.Context, itemSeq string) (*MedicineItem, error) {
	if itemSeq == "" {
		return nil, ErrInvalidCode
	}

	params := url.Values{}
	params.Set("itemSeq", itemSeq)
	params.Set("numOfRows", "1")
	params.Set("type", "json")

	var resp MedicineResponse
	if err := s.get(ctx, EndpointDrugInfo, params, &resp); err != nil {
		s.logger.Error().Err(err).Str("item_seq", itemSeq).Msg("Medicine detail lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrDetailFailed, err)
	}
	if len(resp.Body.Items) == 0 {
		return nil, ErrMedicineNotFound
	}
	return &resp.Body.Items[0], nil
}

// Ingredient returns the ingredient detail of a medicine, or nil when the
// code is empty or upstream has no record.
func (s *Service) Ingredient(ctx context.Context, itemSeq string) (*IngredientItem, error) {
	if itemSeq == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("item_seq", itemSeq)
	params.Set("numOfRows", "1")
	params.Set("type", "json")

	var resp IngredientResponse
	if err := s.get(ctx, EndpointIngredientDetail, params, &resp); err != nil {
		s.logger.Error().Err(err).Str("item_seq", itemSeq).Msg("Ingredient lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrIngredientLookupFailed, err)
	}
	if len(resp.Body.Items) == 0 {
		return nil, nil
	}
	return &resp.Body.Items[0], nil
}

// ListByIngredient lists permitted products containing the named main
// ingredient. An empty name returns nil without calling upstream.
func (s *Service) ListByIngredient(ctx context.Context, name string, pageNo int) (*PermissionResponse, error) {
	if name == "" {
		return nil, nil
	}

	params := s.listParams(pageNo)
	params.Set("item_ingr_name", name)

	var resp PermissionResponse
	if err := s.get(ctx, EndpointPermissionList, params, &resp); err != nil {
		s.logger.Error().Err(err).Str("ingredient", name).Msg("Same-ingredient lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrIngredientListFailed, err)
	}
	return &resp, nil
}

// ListByEfficacy lists medicines whose efficacy text matches. Returns nil
// for an empty efficacy or an empty result.
func (s *Service) ListByEfficacy(ctx context.Context, efficacy string, pageNo int) (*MedicineResponse, error) {
	if efficacy == "" {
		return nil, nil
	}

	params := s.listParams(pageNo)
	params.Set("efcyQesitm", efficacy)

	var resp MedicineResponse
	if err := s.get(ctx, EndpointDrugInfo, params, &resp); err != nil {
		s.logger.Error().Err(err).Msg("Same-efficacy lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrEfficacyFailed, err)
	}
	if len(resp.Body.Items) == 0 {
		return nil, nil
	}
	return &resp, nil
}

// Profile loads a medicine and its ingredient detail concurrently. A failed
// ingredient lookup degrades to a profile without ingredient data.
func (s *Service) Profile(ctx context.Context, itemSeq string) (*Profile, error) {
	if itemSeq == "" {
		return nil, ErrInvalidCode
	}

	var (
		item       *MedicineItem
		ingr       *IngredientItem
		ingrFailed bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		item, err = s.Detail(gctx, itemSeq)
		return err
	})
	g.Go(func() error {
		var err error
		ingr, err = s.Ingredient(gctx, itemSeq)
		if err != nil {
			// A failed detail lookup cancels gctx; the profile is dropped then.
			if gctx.Err() == nil {
				s.logger.Warn().Err(err).Str("item_seq", itemSeq).Msg("Showing profile without ingredient data")
			}
			ingr, ingrFailed = nil, true
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := &Profile{
		Medicine:         item,
		Ingredient:       ingr,
		Ingredients:      []ingredient.ParsedIngredient{},
		MainIngredients:  []string{},
		IngredientFailed: ingrFailed,
	}
	if ingr != nil {
		profile.Ingredients = ingredient.Parse(ingr.MaterialName)
		profile.MainIngredients = ingredient.SplitMainIngredients(ingr.MainIngrEng)
	}
	return profile, nil
}

func (s *Service) listParams(pageNo int) url.Values {
	if pageNo < 1 {
		pageNo = DefaultPageNo
	}
	params := url.Values{}
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("numOfRows", strconv.Itoa(s.config.NumOfRows))
	params.Set("type", "json")
	return params
}

// get calls an endpoint and decodes the envelope into out. A "no data"
// result code is treated as an empty result.
func (s *Service) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	resp, err := s.upstream.Get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var header struct {
		Header Header `json:"header"`
	}
	if err := json.Unmarshal(body, &header); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	switch code := header.Header.ResultCode; code {
	case "", ResultCodeNormal:
	case resultCodeNoData:
		return nil
	default:
		return &ResultError{Code: code, Message: header.Header.ResultMsg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	s.logger.Debug().Str("endpoint", endpoint).Int("bytes", len(body)).Msg("Upstream response decoded")
	return nil
}
