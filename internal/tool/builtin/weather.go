// get_weather has no backing weather-API integration configured, so it
// reports its own unavailability rather than reaching out to an unconfigured
// third-party service.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dispatchd/dispatchd/internal/tool"
)

type WeatherTool struct{}

func NewWeatherTool() *WeatherTool { return &WeatherTool{} }

func (t *WeatherTool) Name() string { return "get_weather" }
func (t *WeatherTool) Description() string {
	return "Weather lookup for a location. No weather data provider is configured, so every lookup returns an unavailability error."
}

func (t *WeatherTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "location", Type: "string", Description: "City or place name", Required: true},
	)
}

func (t *WeatherTool) Init(_ context.Context) error { return nil }
func (t *WeatherTool) Close() error                 { return nil }

func (t *WeatherTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
	}
	location := strings.TrimSpace(a.Location)
	if location == "" {
		return tool.ToolResult{Error: "location must not be empty"}, nil
	}
	return tool.ToolResult{Error: fmt.Sprintf("weather lookup for %q is not available: no weather data provider is configured", location)}, nil
}
