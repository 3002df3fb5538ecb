package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "gapminder/internal/errors"
)

type testQuery struct {
	Country   string `query:"country" validate:"omitempty,max=8"`
	YearFrom  *int   `query:"year_from" validate:"omitempty,gte=1800,lte=2100"`
	Limit     int    `query:"limit" validate:"gte=0"`
	Indicator string `query:"indicator" validate:"omitempty,indicator"`
}

func TestValidator_BindQuery(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantFields []string
		check      func(t *testing.T, q testQuery)
	}{
		{
			name: "all fields bound",
			url:  "/x?country=A&year_from=1990&limit=5&indicator=hdi",
			check: func(t *testing.T, q testQuery) {
				assert.Equal(t, "A", q.Country)
				require.NotNil(t, q.YearFrom)
				assert.Equal(t, 1990, *q.YearFrom)
				assert.Equal(t, 5, q.Limit)
				assert.Equal(t, "hdi", q.Indicator)
			},
		},
		{
			name: "absent params leave zero values",
			url:  "/x",
			check: func(t *testing.T, q testQuery) {
				assert.Empty(t, q.Country)
				assert.Nil(t, q.YearFrom)
			},
		},
		{
			name:       "non-integer year",
			url:        "/x?year_from=abc",
			wantFields: []string{"year_from"},
		},
		{
			name:       "out of range year and long country",
			url:        "/x?year_from=1700&country=Neverlandia",
			wantFields: []string{"country", "year_from"},
		},
		{
			name:       "unknown indicator",
			url:        "/x?indicator=co2",
			wantFields: []string{"indicator"},
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q testQuery
			err := v.BindQuery(httptest.NewRequest(http.MethodGet, tt.url, nil), &q)

			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				tt.check(t, q)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			details, ok := apiErr.Details.([]apierrors.ValidationError)
			require.True(t, ok)
			fields := make([]string, 0, len(details))
			for _, d := range details {
				fields = append(fields, d.Field)
				assert.NotEmpty(t, d.Message)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestValidator_BindQueryRejectsNonStruct(t *testing.T) {
	var n int
	err := NewValidator().BindQuery(httptest.NewRequest(http.MethodGet, "/x", nil), &n)
	assert.Error(t, err)
}
