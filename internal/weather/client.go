// Package weather looks up current conditions for a city and renders them as
// a short human-readable summary. Every provider failure mode is absorbed
// into diagnostic text; Lookup never returns an error.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const tianAPIURL = "https://apis.tianapi.com/tianqi/index"

// Config selects and authenticates the weather provider.
type Config struct {
	APIKey  string
	APIHost string
	// APIType is tianapi or qweather.
	APIType string
}

// Client queries one configured weather provider.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: tianAPIURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Lookup returns a short weather summary for location, or a diagnostic
// string when the provider is unavailable or the city is unknown.
func (c *Client) Lookup(ctx context.Context, location string) string {
	if c.cfg.APIKey == "" {
		return fmt.Sprintf("当前无法访问真实天气服务，这里先假装 %s 的气温是 26℃，多云。", location)
	}
	if strings.EqualFold(c.cfg.APIType, "qweather") {
		return "和风天气 API 尚未接入，请使用天行数据 API（设置 WEATHER_API_TYPE=tianapi）。"
	}
	return c.lookupTianAPI(ctx, location)
}

// tianAPIResponse is the envelope of the tianapi realtime weather endpoint.
type tianAPIResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result struct {
		Area     string `json:"area"`
		Weather  string `json:"weather"`
		Real     string `json:"real"`
		Lowest   string `json:"lowest"`
		Highest  string `json:"highest"`
		Wind     string `json:"wind"`
		WindSC   string `json:"windsc"`
		Humidity string `json:"humidity"`
		Quality  string `json:"quality"`
		AQI      any    `json:"aqi"`
	} `json:"result"`
}

func (c *Client) lookupTianAPI(ctx context.Context, location string) string {
	// The provider wants administrative city names; retry with common
	// suffixes before giving up.
	variants := []string{location, location + "市", location + "县"}

	for _, city := range variants {
		data, ok := c.fetchTianAPI(ctx, city)
		if !ok {
			continue
		}
		if data.Code == 150 {
			return fmt.Sprintf("查询 %s 天气失败，%s。请检查 API 调用次数。", location, data.Msg)
		}
		if data.Code != 200 || data.Result.Area == "" {
			continue
		}
		return formatTianAPI(data)
	}

	return fmt.Sprintf("查询 %s 天气失败，无法找到有效的城市位置。请尝试使用完整的城市名称，如'保定市'。", location)
}

func (c *Client) fetchTianAPI(ctx context.Context, city string) (tianAPIResponse, bool) {
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("city", city)
	// type=1 is realtime weather, 7 would be the 7-day forecast.
	params.Set("type", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return tianAPIResponse{}, false
	}
	res, err := c.http.Do(req)
	if err != nil {
		return tianAPIResponse{}, false
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		return tianAPIResponse{}, false
	}

	var data tianAPIResponse
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return tianAPIResponse{}, false
	}
	return data, true
}

func formatTianAPI(data tianAPIResponse) string {
	r := data.Result
	var b strings.Builder
	fmt.Fprintf(&b, "%s 当前气温 %s，天气：%s，温度范围 %s ~ %s", r.Area, r.Real, r.Weather, r.Lowest, r.Highest)
	if r.Humidity != "" {
		fmt.Fprintf(&b, "，相对湿度 %s%%", r.Humidity)
	}
	if r.Wind != "" {
		fmt.Fprintf(&b, "，%s", r.Wind)
		if r.WindSC != "" {
			fmt.Fprintf(&b, " %s", r.WindSC)
		}
	}
	if r.Quality != "" && r.AQI != nil {
		fmt.Fprintf(&b, "，空气质量：%s（AQI: %v）", r.Quality, r.AQI)
	}
	return b.String()
}
