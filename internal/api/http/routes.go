package httpapi

import (
	"crypto/subtle"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"

	"github.com/i474232898/weather-shortcode/internal/common"
	"github.com/i474232898/weather-shortcode/internal/config"
	"github.com/i474232898/weather-shortcode/internal/weather"
)

var validate = validator.New()

var widgetStyles = map[string]bool{"card": true, "minimal": true, "detailed": true}

// RegisterRoutes wires the HTTP handlers into the Fiber app. When adminToken
// is non-empty, admin routes require it as a bearer token.
func RegisterRoutes(app *fiber.App, service *weather.Service, settings config.Settings, adminToken string) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCurrentQuery(c, settings)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Query(c.UserContext(), q.City, q.Unit)
		if err != nil {
			return failure(err)
		}

		return c.JSON(newWeatherView(report, q, settings))
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"settings":        settings,
			"cacheTtlSeconds": int(service.TTL().Seconds()),
		})
	})

	admin := v1.Group("/admin")
	if adminToken != "" {
		admin.Use(keyauth.New(keyauth.Config{
			Validator: func(_ *fiber.Ctx, key string) (bool, error) {
				if subtle.ConstantTimeCompare([]byte(key), []byte(adminToken)) == 1 {
					return true, nil
				}
				return false, keyauth.ErrMissingOrMalformedAPIKey
			},
		}))
	}

	admin.Post("/cache/flush", func(c *fiber.Ctx) error {
		n, err := service.FlushCache(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to clear weather cache")
		}
		return c.JSON(fiber.Map{"removed": n, "message": "weather cache cleared"})
	})

	admin.Post("/cache/flush-expired", func(c *fiber.Ctx) error {
		n, err := service.FlushExpired(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to sweep weather cache")
		}
		return c.JSON(fiber.Map{"removed": n})
	})

	admin.Get("/test", func(c *fiber.Ctx) error {
		report, err := service.TestConnection(c.UserContext())
		if err != nil {
			var qe *weather.QueryError
			upstream := "weather"
			if errors.As(err, &qe) && qe.Op == "geocode" {
				upstream = "geocoding"
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to connect to "+upstream+" api")
		}
		return c.JSON(fiber.Map{
			"ok":          true,
			"city":        report.City,
			"temperature": math.Round(report.Conditions.Temperature),
			"unit":        weather.UnitCelsius.Symbol(),
		})
	})
}

// currentQuery holds the resolved attributes of a current-weather request.
type currentQuery struct {
	City  string `validate:"required,max=200"`
	Unit  weather.Unit
	Style string
}

// parseCurrentQuery fills missing attributes from settings. Unknown units
// and styles fall back to celsius and card rather than failing.
func parseCurrentQuery(c *fiber.Ctx, settings config.Settings) (currentQuery, error) {
	q := currentQuery{
		City:  common.FirstNonEmpty(c.Query("city"), settings.DefaultCity),
		Unit:  weather.UnitCelsius,
		Style: "card",
	}

	if u, ok := weather.ParseUnit(common.FirstNonEmpty(c.Query("unit"), settings.DefaultUnit)); ok {
		q.Unit = u
	}
	if style := common.FirstNonEmpty(c.Query("style"), settings.WidgetStyle); widgetStyles[style] {
		q.Style = style
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// weatherView is the JSON shape of a current-weather response.
type weatherView struct {
	City             string            `json:"city"`
	Country          string            `json:"country,omitempty"`
	Unit             weather.Unit      `json:"unit"`
	UnitSymbol       string            `json:"unitSymbol"`
	Style            string            `json:"style"`
	Temperature      float64           `json:"temperature"`
	WindSpeedKph     float64           `json:"windSpeedKph"`
	WindDirectionDeg int               `json:"windDirectionDeg"`
	WindDirection    string            `json:"windDirection"`
	WeatherCode      int               `json:"weatherCode"`
	Condition        weather.Condition `json:"condition"`
	Description      string            `json:"description"`
	Icon             string            `json:"icon,omitempty"`
	ObservedAt       time.Time         `json:"observedAt"`
	Display          displayFlags      `json:"display"`
}

type displayFlags struct {
	ShowIcon     bool `json:"showIcon"`
	ShowWind     bool `json:"showWind"`
	ShowHumidity bool `json:"showHumidity"`
}

func newWeatherView(r weather.Report, q currentQuery, settings config.Settings) weatherView {
	cond := r.Conditions
	v := weatherView{
		City:             r.City,
		Country:          r.Country,
		Unit:             q.Unit,
		UnitSymbol:       q.Unit.Symbol(),
		Style:            q.Style,
		Temperature:      cond.Temperature,
		WindSpeedKph:     cond.WindSpeedKph,
		WindDirectionDeg: cond.WindDirectionDeg,
		WindDirection:    weather.Compass(cond.WindDirectionDeg),
		WeatherCode:      cond.WeatherCode,
		Condition:        weather.ConditionFor(cond.WeatherCode),
		Description:      weather.Describe(cond.WeatherCode),
		ObservedAt:       cond.ObservedAt,
		Display: displayFlags{
			ShowIcon:     settings.ShowIcon,
			ShowWind:     settings.ShowWind,
			ShowHumidity: settings.ShowHumidity,
		},
	}
	if settings.ShowIcon {
		v.Icon = weather.Icon(cond.WeatherCode)
	}
	return v
}

// failure maps a query error to an HTTP error. The message stays generic;
// the failure kind is appended for clients that want to distinguish.
func failure(err error) error {
	kind, _ := weather.KindOf(err)

	status := fiber.StatusBadGateway
	switch kind {
	case weather.InvalidInput:
		status = fiber.StatusBadRequest
	case weather.NotFound:
		status = fiber.StatusNotFound
	}
	return fiber.NewError(status, "weather unavailable: "+kind.String())
}
