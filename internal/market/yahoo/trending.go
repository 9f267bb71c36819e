package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Mithun-VK/trading-chatbot/internal/market"
)

type trendingResponse struct {
	Finance struct {
		Result []struct {
			Quotes []struct {
				Symbol string `json:"symbol"`
			} `json:"quotes"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"finance"`
}

// Trending implements market.Provider using the public trending endpoint.
func (p *Provider) Trending(ctx context.Context, region string, count int) ([]string, error) {
	query := url.Values{}
	query.Set("count", strconv.Itoa(count))

	u := fmt.Sprintf("%s/v1/finance/trending/%s?%s", p.baseURL, url.PathEscape(region), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = p.header.Clone()

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, market.ErrRateLimited
	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body trendingResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding trending response: %w", err)
	}
	if len(body.Finance.Result) == 0 {
		return nil, ErrEmptyTrending
	}

	out := make([]string, 0, count)
	for _, q := range body.Finance.Result[0].Quotes {
		sym := market.NormalizeSymbol(q.Symbol)
		if sym == "" {
			continue
		}
		out = append(out, sym)
		if count > 0 && len(out) == count {
			break
		}
	}
	return out, nil
}
