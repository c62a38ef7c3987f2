// Package hdx provides a client for publishing datasets to an HDX-style
// CKAN data catalog.
package hdx

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/pariz/gountries"
	"github.com/rotisserie/eris"
)

// timePeriodLayout is the dataset_date timestamp format CKAN expects.
const timePeriodLayout = "2006-01-02T15:04:05"

var countryQuery = gountries.New()

// Dataset is a catalog dataset under construction.
type Dataset struct {
	Name        string
	Title       string
	Tags        []string
	Groups      []string
	DatasetDate string
	OwnerOrg    string
	Maintainer  string
	Resources   []*Resource
}

// Resource is a file-backed dataset resource staged for upload.
type Resource struct {
	Name        string
	Description string
	Format      string
	FilePath    string
}

// NewDataset creates a dataset named by slugifying the title.
func NewDataset(title string) *Dataset {
	return &Dataset{
		Name:  slug.Make(title),
		Title: title,
	}
}

// SetTimePeriod records the dataset's temporal extent as an inclusive range.
func (d *Dataset) SetTimePeriod(min, max time.Time) {
	d.DatasetDate = fmt.Sprintf("[%s TO %s]",
		min.UTC().Format(timePeriodLayout),
		max.UTC().Format(timePeriodLayout),
	)
}

// AddTags appends tags to the dataset.
func (d *Dataset) AddTags(tags []string) {
	d.Tags = append(d.Tags, tags...)
}

// AddOtherLocation adds a non-country location group such as "world".
func (d *Dataset) AddOtherLocation(name string) {
	d.Groups = append(d.Groups, strings.ToLower(name))
}

// AddCountryLocation adds the location group for an ISO3 country code.
// Unrecognized codes return an error so the caller can skip the dataset.
func (d *Dataset) AddCountryLocation(iso3 string) error {
	if _, err := countryQuery.FindCountryByAlpha(iso3); err != nil {
		return eris.Wrapf(err, "hdx: unknown country %q", iso3)
	}
	d.Groups = append(d.Groups, strings.ToLower(iso3))
	return nil
}

// AddResource appends a resource to the dataset.
func (d *Dataset) AddResource(r *Resource) {
	d.Resources = append(d.Resources, r)
}

// CountryName returns the canonical name for an ISO3 country code.
func CountryName(iso3 string) (string, error) {
	country, err := countryQuery.FindCountryByAlpha(iso3)
	if err != nil {
		return "", eris.Wrapf(err, "hdx: unknown country %q", iso3)
	}
	return country.Name.Common, nil
}
