package flightplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yegors/co-pilot/pkg/logger"
)

// Error taxonomy for flight plan fetches. Callers map these to their own
// protocol.
var (
	ErrUserNotFound = errors.New("user not found or no flight plan available")
	ErrNetwork      = errors.New("flight plan provider unreachable")
)

// Client fetches operational flight plans from the planning provider and
// caches the most recent one
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger

	mu     sync.RWMutex
	cached *FlightPlan
}

// NewClient creates a new flight plan client
func NewClient(baseURL string, timeout time.Duration, logger *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("flightplan-cli"),
	}
}

// FlightPlan returns the cached flight plan, or nil when none has been
// fetched
func (c *Client) FlightPlan() *FlightPlan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cached
}

// Clear discards the cached flight plan
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

// Fetch retrieves the latest flight plan for the given username and caches it
func (c *Client) Fetch(ctx context.Context, username string) (*FlightPlan, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	reqURL := fmt.Sprintf("%s?username=%s&json=1", c.baseURL, url.QueryEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Fetching flight plan", logger.String("username", username))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var ofp ofpResponse
	if err := json.Unmarshal(body, &ofp); err != nil {
		return nil, fmt.Errorf("failed to parse flight plan: %w", err)
	}

	if ofp.Fetch.Status == "Error" {
		msg := ofp.Fetch.Message
		if strings.Contains(msg, "User not found") || strings.Contains(msg, "No flight plan") {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, msg)
		}
		return nil, fmt.Errorf("flight plan fetch failed: %s", msg)
	}

	plan := c.parseOFP(&ofp)

	c.mu.Lock()
	c.cached = plan
	c.mu.Unlock()

	c.logger.Info("Flight plan fetched",
		logger.String("origin", plan.Origin),
		logger.String("destination", plan.Destination),
	)
	return plan, nil
}

// parseOFP converts the provider's OFP shape into the runtime model
func (c *Client) parseOFP(ofp *ofpResponse) *FlightPlan {
	fuelUnits, weightUnits := "LBS", "LBS"
	if strings.EqualFold(ofp.Params.Units, "kgs") {
		fuelUnits, weightUnits = "KG", "KG"
	}

	return &FlightPlan{
		Origin:         ofp.Origin.ICAOCode,
		Destination:    ofp.Destination.ICAOCode,
		Alternate:      ofp.Alternate.ICAOCode,
		Route:          ofp.General.Route,
		FlightNumber:   ofp.General.FlightNumber,
		FuelBlock:      ofp.Fuel.PlanRamp.Int(),
		FuelTakeoff:    ofp.Fuel.PlanTakeoff.Int(),
		FuelLanding:    ofp.Fuel.PlanLanding.Int(),
		FuelUnits:      fuelUnits,
		Payload:        ofp.Weights.Payload.Int(),
		ZFW:            ofp.Weights.EstZFW.Int(),
		TOW:            ofp.Weights.EstTOW.Int(),
		LDW:            ofp.Weights.EstLDW.Int(),
		WeightUnits:    weightUnits,
		CruiseAltitude: ofp.General.InitialAltitude,
		CostIndex:      ofp.General.CostIndex.Int(),
		OriginMETAR:    ofp.Weather.OrigMETAR,
		DestMETAR:      ofp.Weather.DestMETAR,
		OriginQNH:      ParseQNH(ofp.Weather.OrigMETAR),
		DestQNH:        ParseQNH(ofp.Weather.DestMETAR),
		TrimPercent:    ofp.Weights.EstTrim.Float(),
	}
}

var (
	qnhHPaPattern  = regexp.MustCompile(`Q(\d{4})`)
	qnhInHgPattern = regexp.MustCompile(`A(\d{4})`)
)

// ParseQNH extracts the altimeter setting from a METAR string in hPa. Both
// the Q1013 (hPa) and A2992 (inHg) conventions are handled; inHg is
// converted. Returns 0 when no setting is present.
func ParseQNH(metar string) int {
	if metar == "" {
		return 0
	}

	if m := qnhHPaPattern.FindStringSubmatch(metar); m != nil {
		hpa, _ := strconv.Atoi(m[1])
		return hpa
	}

	if m := qnhInHgPattern.FindStringSubmatch(metar); m != nil {
		raw, _ := strconv.Atoi(m[1])
		inHg := float64(raw) / 100.0
		return int(inHg * 33.8639)
	}

	return 0
}

// stringOrNum tolerates providers that encode numeric fields as either JSON
// numbers or strings
type stringOrNum struct {
	value float64
	set   bool
}

func (s *stringOrNum) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		s.value, s.set = n, true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		return nil
	}
	n, err := strconv.ParseFloat(str, 64)
	if err != nil {
		// Tolerate non-numeric text in optional fields
		return nil
	}
	s.value, s.set = n, true
	return nil
}

// Int returns the value truncated to an int
func (s stringOrNum) Int() int { return int(s.value) }

// Float returns the raw value
func (s stringOrNum) Float() float64 { return s.value }
