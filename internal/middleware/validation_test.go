package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test struct with validation tags
type testCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=99"`
}

func decodeMap(t *testing.T, reqMap map[string]interface{}) (testCartItemRequest, error) {
	t.Helper()
	reqBody, _ := json.Marshal(reqMap)
	req := httptest.NewRequest("POST", "/api/cart/items", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	var testReq testCartItemRequest
	err := DecodeAndValidate(httptest.NewRecorder(), req, &testReq)
	return testReq, err
}

// Feature: storefront-api, Property: required field validation works
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeProduct bool, includeQuantity bool) bool {
			reqMap := map[string]interface{}{"size": "m", "color": "#000"}

			if includeProduct {
				reqMap["productId"] = "p1"
			}
			if includeQuantity {
				reqMap["quantity"] = 2
			}

			_, err := decodeMap(t, reqMap)

			if includeProduct && includeQuantity {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront-api, Property: quantity range is enforced
func TestProperty_QuantityRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantity outside 1..99 is rejected", prop.ForAll(
		func(quantity int) bool {
			_, err := decodeMap(t, map[string]interface{}{"productId": "p1", "quantity": quantity})

			if quantity >= 1 && quantity <= 99 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-20, 150),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesJSONNames(t *testing.T) {
	_, err := decodeMap(t, map[string]interface{}{"quantity": 0})
	require.Error(t, err)

	fields := map[string]string{}
	for _, ve := range FormatValidationErrors(err) {
		fields[ve.Field] = ve.Message
	}

	assert.Equal(t, "This field is required", fields["productId"])
	assert.Equal(t, "Value must be greater than or equal to 1", fields["quantity"])
}

func TestDecodeJSON_MalformedBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader("{not json"))

	var testReq testCartItemRequest
	err := DecodeAndValidate(httptest.NewRecorder(), req, &testReq)
	assert.True(t, errors.Is(err, ErrInvalidBody))
	assert.Empty(t, FormatValidationErrors(err))
}
