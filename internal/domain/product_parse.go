package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Fields required to create a product; everything else may be defaulted
var requiredFields = []string{"name", "price", "category"}

type fieldErrors struct {
	list     []FieldError
	reported map[string]bool
}

func (f *fieldErrors) add(field, message string) {
	if f.reported == nil {
		f.reported = make(map[string]bool)
	}
	if f.reported[field] {
		return
	}
	f.reported[field] = true
	f.list = append(f.list, FieldError{Field: field, Message: message})
}

// ParseProduct coerces a loosely typed payload into a validated Product.
// Numbers are accepted from numeric-like text, text from scalars, and
// absent arrays default to empty. The category must be one of the fixed
// set and name, price and category must be present.
func ParseProduct(raw map[string]any) (Product, error) {
	if raw == nil {
		return Product{}, NewValidationError("product", "must be an object")
	}
	in := NormalizeAliases(raw)

	errs := &fieldErrors{}
	for _, field := range requiredFields {
		if isBlank(in[field]) {
			errs.add(field, "is required")
		}
	}

	p := Product{
		ID:            strings.TrimSpace(toString(in["id"], "id", errs)),
		Name:          strings.TrimSpace(toString(in["name"], "name", errs)),
		Description:   toString(in["description"], "description", errs),
		Price:         toFloat(in["price"], "price", errs),
		OriginalPrice: toOptionalFloat(in["originalPrice"], "originalPrice", errs),
		Category:      Category(strings.TrimSpace(toString(in["category"], "category", errs))),
		Subcategory:   toString(in["subcategory"], "subcategory", errs),
		Images:        toStrings(in["images"], "images", errs),
		Stock:         toWholeNumber(in["stock"], "stock", errs),
		Featured:      toBool(in["featured"], "featured", errs),
		NewProduct:    toBool(in["newProduct"], "newProduct", errs),
		OnSale:        toBool(in["onSale"], "onSale", errs),
	}

	for _, o := range toOptions(in["sizes"], "sizes", errs) {
		p.Sizes = append(p.Sizes, Size(o))
	}
	for _, o := range toOptions(in["colors"], "colors", errs) {
		p.Colors = append(p.Colors, Color(o))
	}
	if p.Sizes == nil {
		p.Sizes = []Size{}
	}
	if p.Colors == nil {
		p.Colors = []Color{}
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Product{}, fmt.Errorf("failed to validate product: %w", err)
		}
		for _, fe := range verrs {
			errs.add(fieldPath(fe), ruleMessage(fe))
		}
	}

	if len(errs.list) > 0 {
		return Product{}, &ValidationError{Fields: errs.list}
	}
	return p, nil
}

// MergeProduct applies a partial payload onto existing and re-validates
// the result. The id of existing always wins over any id in the patch.
func MergeProduct(existing Product, patch map[string]any) (Product, error) {
	merged := existing.Fields()
	for k, v := range NormalizeAliases(patch) {
		if k == "id" || k == "_id" {
			continue
		}
		merged[k] = v
	}

	p, err := ParseProduct(merged)
	if err != nil {
		return Product{}, err
	}
	p.CreatedAt = existing.CreatedAt
	return p, nil
}

// NormalizeAliases returns a copy of raw with historical field names
// mapped onto their current ones ("isNew" -> "newProduct").
func NormalizeAliases(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	if v, ok := out["isNew"]; ok {
		if _, has := out["newProduct"]; !has {
			out["newProduct"] = v
		}
		delete(out, "isNew")
	}
	return out
}

// Fields returns p as a loose field map, the inverse of ParseProduct
func (p Product) Fields() map[string]any {
	images := make([]any, len(p.Images))
	for i, img := range p.Images {
		images[i] = img
	}
	sizes := make([]any, len(p.Sizes))
	for i, s := range p.Sizes {
		sizes[i] = map[string]any{"name": s.Name, "value": s.Value, "available": s.Available}
	}
	colors := make([]any, len(p.Colors))
	for i, c := range p.Colors {
		colors[i] = map[string]any{"name": c.Name, "value": c.Value, "available": c.Available}
	}

	m := map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    string(p.Category),
		"subcategory": p.Subcategory,
		"images":      images,
		"sizes":       sizes,
		"colors":      colors,
		"stock":       p.Stock,
		"featured":    p.Featured,
		"newProduct":  p.NewProduct,
		"onSale":      p.OnSale,
	}
	if p.OriginalPrice != nil {
		m["originalPrice"] = *p.OriginalPrice
	}
	return m
}

type option struct {
	Name      string
	Value     string
	Available bool
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func toString(v any, field string, errs *fieldErrors) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		errs.add(field, "must be text")
		return ""
	}
	return s
}

func toFloat(v any, field string, errs *fieldErrors) float64 {
	if isBlank(v) {
		return 0
	}
	switch t := v.(type) {
	case bool:
		errs.add(field, "must be a number")
		return 0
	case string:
		v = strings.TrimSpace(t)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		errs.add(field, "must be a number")
		return 0
	}
	return f
}

// A zero or blank original price means "no previous price"
func toOptionalFloat(v any, field string, errs *fieldErrors) *float64 {
	if isBlank(v) {
		return nil
	}
	f := toFloat(v, field, errs)
	if f == 0 {
		return nil
	}
	return &f
}

func toWholeNumber(v any, field string, errs *fieldErrors) int {
	f := toFloat(v, field, errs)
	if f != math.Trunc(f) {
		errs.add(field, "must be a whole number")
		return 0
	}
	if f > math.MaxInt32 {
		errs.add(field, "is too large")
		return 0
	}
	return int(f)
}

func toBool(v any, field string, errs *fieldErrors) bool {
	if isBlank(v) {
		return false
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		errs.add(field, "must be true or false")
		return false
	}
	return b
}

func toStrings(v any, field string, errs *fieldErrors) []string {
	if v == nil {
		return []string{}
	}
	switch items := v.(type) {
	case []string:
		return append([]string{}, items...)
	case []any:
		out := make([]string, 0, len(items))
		for i, item := range items {
			s, err := cast.ToStringE(item)
			if err != nil {
				errs.add(fmt.Sprintf("%s[%d]", field, i), "must be text")
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		errs.add(field, "must be an array")
		return []string{}
	}
}

func toOptions(v any, field string, errs *fieldErrors) []option {
	if v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		errs.add(field, "must be an array")
		return nil
	}

	out := make([]option, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", field, i)
		m, ok := item.(map[string]any)
		if !ok {
			errs.add(path, "must be an object")
			continue
		}
		o := option{
			Name:      strings.TrimSpace(toString(m["name"], path+".name", errs)),
			Value:     strings.TrimSpace(toString(m["value"], path+".value", errs)),
			Available: true,
		}
		if _, present := m["available"]; present {
			o.Available = toBool(m["available"], path+".available", errs)
		}
		out = append(out, o)
	}
	return out
}

// fieldPath turns "Product.sizes[0].value" into "sizes[0].value"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}
