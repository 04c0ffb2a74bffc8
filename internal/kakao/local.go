package kakao

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/teemow/focusmate/internal/domain"
	"github.com/teemow/focusmate/internal/instrumentation"
)

const (
	addressSearchPath = "/v2/local/search/address.json"
	keywordSearchPath = "/v2/local/search/keyword.json"
)

// purposeProfile is the default search phrase and optional category group
// for a purpose.
type purposeProfile struct {
	Keyword  string
	Category string
}

// categoryCafe is the Kakao category group code for cafes.
const categoryCafe = "CE7"

var purposeProfiles = map[string]purposeProfile{
	domain.PurposeStudy:    {Keyword: "study-cafe", Category: categoryCafe},
	domain.PurposeWork:     {Keyword: "cafe", Category: categoryCafe},
	domain.PurposeExercise: {Keyword: "gym"},
	domain.PurposeReading:  {Keyword: "library"},
}

// SearchQuery returns the query string and category filter used for args.
func SearchQuery(args domain.SearchArgs) (query, category string) {
	profile := purposeProfiles[args.Purpose]
	phrase := args.Keyword
	if phrase == "" {
		phrase = profile.Keyword
	}
	return args.Location + " " + phrase, profile.Category
}

type localMeta struct {
	TotalCount int `json:"total_count"`
}

type addressDocument struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}

type addressResponse struct {
	Meta      localMeta         `json:"meta"`
	Documents []addressDocument `json:"documents"`
}

type placeDocument struct {
	ID                string `json:"id"`
	PlaceName         string `json:"place_name"`
	CategoryName      string `json:"category_name"`
	CategoryGroupCode string `json:"category_group_code"`
	CategoryGroupName string `json:"category_group_name"`
	Phone             string `json:"phone"`
	AddressName       string `json:"address_name"`
	RoadAddressName   string `json:"road_address_name"`
	X                 string `json:"x"`
	Y                 string `json:"y"`
	PlaceURL          string `json:"place_url"`
	Distance          string `json:"distance"`
}

type keywordResponse struct {
	Meta      localMeta       `json:"meta"`
	Documents []placeDocument `json:"documents"`
}

// SearchPlaces finds places for args.Purpose around args.Location, nearest
// first.
func (c *Client) SearchPlaces(ctx context.Context, args domain.SearchArgs) (*domain.PlaceList, error) {
	if c.restAPIKey == "" {
		return nil, domain.NewConfigMissingError("local.search", RESTAPIKeyEnv)
	}

	x, y, err := c.geocode(ctx, args.Location)
	if err != nil {
		return nil, err
	}

	query, category := SearchQuery(args)
	params := url.Values{}
	params.Set("query", query)
	params.Set("x", x)
	params.Set("y", y)
	params.Set("radius", strconv.Itoa(args.Radius))
	params.Set("size", strconv.Itoa(args.Limit))
	params.Set("sort", "distance")
	if category != "" {
		params.Set("category_group_code", category)
	}

	var resp keywordResponse
	if err := c.getLocal(ctx, instrumentation.OperationSearch, keywordSearchPath, params, &resp); err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(resp.Documents))
	for _, doc := range resp.Documents {
		places = append(places, toPlace(doc))
	}

	return &domain.PlaceList{
		Purpose:    args.Purpose,
		Location:   args.Location,
		Query:      query,
		TotalCount: resp.Meta.TotalCount,
		Places:     places,
	}, nil
}

// geocode resolves a location to coordinates: address lookup first, then the
// first keyword hit.
func (c *Client) geocode(ctx context.Context, location string) (x, y string, err error) {
	params := url.Values{}
	params.Set("query", location)

	var addr addressResponse
	if err := c.getLocal(ctx, instrumentation.OperationGeocode, addressSearchPath, params, &addr); err != nil {
		return "", "", err
	}
	if len(addr.Documents) > 0 {
		return addr.Documents[0].X, addr.Documents[0].Y, nil
	}

	params.Set("size", "1")
	var kw keywordResponse
	if err := c.getLocal(ctx, instrumentation.OperationGeocode, keywordSearchPath, params, &kw); err != nil {
		return "", "", err
	}
	if len(kw.Documents) > 0 {
		return kw.Documents[0].X, kw.Documents[0].Y, nil
	}

	return "", "", domain.NewNotFoundError("local.geocode", location)
}

func (c *Client) getLocal(ctx context.Context, operation, path string, params url.Values, out any) error {
	req, err := c.newLocalRequest(ctx, path, params)
	if err != nil {
		return err
	}

	body, err := c.do(ctx, call{
		service:   instrumentation.ServiceLocal,
		operation: operation,
		req:       req,
		policy:    localStatusPolicy,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewProviderError(instrumentation.ServiceLocal+"."+operation, 200, "unexpected response body", err)
	}
	return nil
}

func localStatusPolicy(op string, status int, body []byte) error {
	switch status {
	case 401:
		return domain.NewUnauthorizedError(op)
	case 429:
		return domain.NewRateLimitedError(op)
	default:
		return domain.NewProviderError(op, status, providerMessage(body), nil)
	}
}

func toPlace(doc placeDocument) domain.Place {
	address := doc.RoadAddressName
	if address == "" {
		address = doc.AddressName
	}

	phone := strings.TrimSpace(doc.Phone)
	if phone == "" {
		phone = domain.PhoneUnavailable
	}

	category := doc.CategoryGroupName
	if category == "" {
		category = lastCategory(doc.CategoryName)
	}

	distance, _ := strconv.Atoi(doc.Distance)
	x, _ := strconv.ParseFloat(doc.X, 64)
	y, _ := strconv.ParseFloat(doc.Y, 64)

	return domain.Place{
		Name:           doc.PlaceName,
		Address:        address,
		DistanceMeters: distance,
		Phone:          phone,
		Category:       category,
		URL:            doc.PlaceURL,
		X:              x,
		Y:              y,
	}
}

// lastCategory returns the most specific segment of "A > B > C".
func lastCategory(name string) string {
	if i := strings.LastIndex(name, ">"); i >= 0 {
		return strings.TrimSpace(name[i+1:])
	}
	return strings.TrimSpace(name)
}
