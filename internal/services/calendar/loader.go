package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	xhttp "FXCast/pkg/http"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/yaml.v3"
)

// Holiday is a single dated closure of a holiday set.
type Holiday struct {
	Set  string `yaml:"set" json:"set"`
	Date string `yaml:"date" json:"date"` // YYYY-MM-DD
	Name string `yaml:"name" json:"name"`
}

type holidayFile struct {
	Holidays []Holiday `yaml:"holidays" json:"holidays"`
}

// LoadHolidaysFile reads dated holidays from a YAML file.
func LoadHolidaysFile(path string) ([]Holiday, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays: %w", err)
	}
	var f holidayFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse holidays: %w", err)
	}
	return f.Holidays, nil
}

// FetchHolidays downloads dated holidays as JSON, retrying with exponential backoff
// until maxElapsed passes or ctx is done.
func FetchHolidays(ctx context.Context, client *xhttp.Client, url string, maxElapsed time.Duration) ([]Holiday, error) {
	var f holidayFile
	operation := func() error {
		f = holidayFile{}
		return client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodGet,
			URL:     url,
			Headers: map[string]string{"Accept": "application/json"},
		}, &f)
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}
	return f.Holidays, nil
}
