package excelkit

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
)

type address struct {
	City string `db:"city"`
}

type customer struct {
	ID      int64    `json:"id"`
	Name    string   `excel:"customer_name"`
	Address *address `json:"address"`
	Tags    map[string]interface{}
	secret  string
}

type status string

type plate string

func (p plate) String() string { return "plate:" + string(p) }

type routeErr struct{ route string }

func (e *routeErr) Error() string { return "no route " + e.route }

type odometer struct{ km int }

func (o *odometer) String() string { return fmt.Sprintf("%d km", o.km) }

func TestExtractPath(t *testing.T) {
	c := customer{
		ID:      7,
		Name:    "Cong ty Van tai Sai Gon",
		Address: &address{City: "Ho Chi Minh"},
		Tags:    map[string]interface{}{"tier": "gold"},
		secret:  "x",
	}

	assert.Equal(t, int64(7), ExtractPath(c, "ID"))
	assert.Equal(t, int64(7), ExtractPath(&c, "id"))
	assert.Equal(t, "Cong ty Van tai Sai Gon", ExtractPath(c, "customer_name"))
	assert.Equal(t, "Ho Chi Minh", ExtractPath(c, "address.city"))
	assert.Equal(t, "Ho Chi Minh", ExtractPath(c, "Address.City"))
	assert.Equal(t, "gold", ExtractPath(c, "Tags.tier"))
	assert.Nil(t, ExtractPath(c, "secret"))
	assert.Nil(t, ExtractPath(c, "missing"))
	assert.Nil(t, ExtractPath(c, "ID.deeper"))
	assert.Nil(t, ExtractPath(customer{}, "address.city"))
	assert.Nil(t, ExtractPath(nil, "ID"))

	m := map[string]interface{}{"vehicle": map[string]interface{}{"plate": "51A-123.45"}}
	assert.Equal(t, "51A-123.45", ExtractPath(m, "vehicle.plate"))
	assert.Nil(t, ExtractPath(map[int]string{1: "a"}, "1"))
}

func TestNormalizeCellValue(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	name := "Van"
	var nilPtr *string

	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, nil},
		{"string", "a", "a"},
		{"int", 3, 3},
		{"float", 1.5, 1.5},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(1), nil},
		{"bool", true, true},
		{"time", now, now},
		{"pointer", &name, "Van"},
		{"nil pointer", nilPtr, nil},
		{"bytes", []byte("xyz"), "xyz"},
		{"null string valid", sql.NullString{String: "ok", Valid: true}, "ok"},
		{"null string invalid", sql.NullString{}, nil},
		{"null time", sql.NullTime{Time: now, Valid: true}, now},
		{"named string", status("active"), "active"},
		{"stringer", plate("29C"), "plate:29C"},
		{"error", errors.New("boom"), "boom"},
		{"pointer receiver error", &routeErr{"HN-HCM"}, "no route HN-HCM"},
		{"pointer receiver stringer", &odometer{1200}, "1200 km"},
		{"time pointer", &now, now},
		{"null string pointer", &sql.NullString{String: "ok", Valid: true}, "ok"},
		{"slice", []int{1, 2}, "[1 2]"},
		{"rich text", driver.RichText{Runs: []driver.RichTextRun{{Text: "a"}}}, driver.RichText{Runs: []driver.RichTextRun{{Text: "a"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCellValue(tt.in))
		})
	}
}
