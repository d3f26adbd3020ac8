package complexvalue

import (
	"fmt"
	"strconv"
	"strings"

	"arkman.dev/cli/internal/core/document"
	"arkman.dev/cli/internal/core/primitive"
)

// fieldReader reads typed fields out of a generic mapping. The first failure
// is kept and every later read becomes a no-op.
type fieldReader struct {
	variant Kind
	m       *document.Map
	err     error
}

func newFieldReader(variant Kind, m *document.Map) *fieldReader {
	r := &fieldReader{variant: variant, m: m}
	if m == nil {
		r.err = &ConstructionError{Variant: variant, Reason: "mapping is nil"}
	}
	return r
}

func (r *fieldReader) fail(field, format string, args ...any) {
	if r.err == nil {
		r.err = &ConstructionError{Variant: r.variant, Field: field, Reason: fmt.Sprintf(format, args...)}
	}
}

// lookup treats explicit nulls like absent fields.
func (r *fieldReader) lookup(field string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.m.Get(field)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *fieldReader) require(fields ...string) {
	for _, f := range fields {
		if _, ok := r.lookup(f); !ok && r.err == nil {
			r.fail(f, "required field is missing")
		}
	}
}

func (r *fieldReader) str(field string) *string {
	v, ok := r.lookup(field)
	if !ok {
		return nil
	}
	s, err := primitive.AsString(v)
	if err != nil {
		r.fail(field, "%v", err)
		return nil
	}
	return &s
}

func (r *fieldReader) float(field string) *float64 {
	v, ok := r.lookup(field)
	if !ok {
		return nil
	}
	f, err := primitive.AsFloat(v)
	if err != nil {
		r.fail(field, "%v", err)
		return nil
	}
	return &f
}

func (r *fieldReader) integer(field string) *int64 {
	v, ok := r.lookup(field)
	if !ok {
		return nil
	}
	i, err := primitive.AsInt(v)
	if err != nil {
		r.fail(field, "%v", err)
		return nil
	}
	return &i
}

func (r *fieldReader) boolean(field string) *bool {
	v, ok := r.lookup(field)
	if !ok {
		return nil
	}
	b, err := primitive.AsBool(v)
	if err != nil {
		r.fail(field, "%v", err)
		return nil
	}
	return &b
}

func (r *fieldReader) list(field string) []any {
	v, ok := r.lookup(field)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		r.fail(field, "expected list, got %s", describe(v))
		return nil
	}
	return items
}

func (r *fieldReader) strList(field string) []string {
	items := r.list(field)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, err := primitive.AsString(item)
		if err != nil {
			r.fail(fmt.Sprintf("%s[%d]", field, i), "%v", err)
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (r *fieldReader) floatList(field string) []float64 {
	items := r.list(field)
	if len(items) == 0 {
		return nil
	}
	out := make([]float64, 0, len(items))
	for i, item := range items {
		f, err := primitive.AsFloat(item)
		if err != nil {
			r.fail(fmt.Sprintf("%s[%d]", field, i), "%v", err)
			return nil
		}
		out = append(out, f)
	}
	return out
}

// readNested reads a single nested variant given as a mapping or as an
// already built value.
func readNested[T Value](r *fieldReader, field string, build func(*document.Map) (T, error)) T {
	var zero T
	v, ok := r.lookup(field)
	if !ok {
		return zero
	}
	switch x := v.(type) {
	case T:
		return x
	case *document.Map:
		built, err := build(x)
		if err != nil {
			r.nestedFailure(field, err)
			return zero
		}
		return built
	default:
		r.fail(field, "expected mapping or %s, got %s", kindOf[T](), describe(v))
		return zero
	}
}

// readNestedList reads a list of nested variants. The elements must be all
// mappings or all built values of the expected variant.
func readNestedList[T Value](r *fieldReader, field string, build func(*document.Map) (T, error)) []T {
	items := r.list(field)
	if len(items) == 0 {
		return nil
	}

	var maps, built int
	for _, item := range items {
		switch item.(type) {
		case *document.Map:
			maps++
		case T:
			built++
		default:
			r.fail(field, "elements must be mappings or %s values, found %s", kindOf[T](), describe(item))
			return nil
		}
	}
	if maps > 0 && built > 0 {
		r.fail(field, "elements mix mappings with built %s values", kindOf[T]())
		return nil
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		if v, ok := item.(T); ok {
			out = append(out, v)
			continue
		}
		v, err := build(item.(*document.Map))
		if err != nil {
			r.nestedFailure(fmt.Sprintf("%s[%d]", field, i), err)
			return nil
		}
		out = append(out, v)
	}
	return out
}

func (r *fieldReader) nestedFailure(field string, err error) {
	if r.err != nil {
		return
	}
	if ce, ok := err.(*ConstructionError); ok {
		path := field
		if ce.Field != "" {
			path += "." + ce.Field
		}
		r.err = &ConstructionError{Variant: r.variant, Field: path, Reason: ce.Reason}
		return
	}
	r.fail(field, "%v", err)
}

// kindOf relies on Kind methods not touching their receiver.
func kindOf[T Value]() Kind {
	var zero T
	return zero.Kind()
}

func describe(v any) string {
	switch x := v.(type) {
	case *document.Map:
		return "mapping"
	case Value:
		return string(x.Kind())
	default:
		return primitive.TypeName(v)
	}
}

// literalBuilder collects Field=value parts of an inline literal.
type literalBuilder struct {
	parts []string
}

func (b *literalBuilder) raw(field, text string) {
	b.parts = append(b.parts, field+"="+text)
}

func (b *literalBuilder) quoted(field string, v *string) {
	if v != nil {
		b.raw(field, `"`+*v+`"`)
	}
}

func (b *literalBuilder) fixed(field string, v *float64, decimals int) {
	if v != nil {
		b.raw(field, primitive.FormatFixed(*v, decimals))
	}
}

func (b *literalBuilder) shortest(field string, v *float64) {
	if v != nil {
		b.raw(field, primitive.FormatFloat(*v))
	}
}

func (b *literalBuilder) integer(field string, v *int64) {
	if v != nil {
		b.raw(field, strconv.FormatInt(*v, 10))
	}
}

func (b *literalBuilder) boolean(field string, v *bool) {
	if v != nil {
		b.raw(field, primitive.FormatTitleBool(*v))
	}
}

func (b *literalBuilder) nested(field string, v Value) {
	b.raw(field, v.Literal())
}

func (b *literalBuilder) list(field string, items []string) {
	if len(items) > 0 {
		b.raw(field, "("+strings.Join(items, ",")+")")
	}
}

func (b *literalBuilder) String() string {
	return "(" + strings.Join(b.parts, ",") + ")"
}

func wrapEach(items []string, prefix, suffix string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = prefix + s + suffix
	}
	return out
}

func fixedEach(values []float64, decimals int) []string {
	out := make([]string, len(values))
	for i, f := range values {
		out[i] = primitive.FormatFixed(f, decimals)
	}
	return out
}

func literalEach[T Value](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Literal()
	}
	return out
}

// mappingBuilder is the ToMapping counterpart of literalBuilder.
type mappingBuilder struct {
	m *document.Map
}

func newMappingBuilder() *mappingBuilder {
	return &mappingBuilder{m: document.NewMap()}
}

func (b *mappingBuilder) str(field string, v *string) {
	if v != nil {
		b.m.Set(field, *v)
	}
}

func (b *mappingBuilder) float(field string, v *float64) {
	if v != nil {
		b.m.Set(field, *v)
	}
}

func (b *mappingBuilder) integer(field string, v *int64) {
	if v != nil {
		b.m.Set(field, *v)
	}
}

func (b *mappingBuilder) boolean(field string, v *bool) {
	if v != nil {
		b.m.Set(field, *v)
	}
}

func (b *mappingBuilder) strList(field string, v []string) {
	if len(v) > 0 {
		b.m.Set(field, document.Normalize(v))
	}
}

func (b *mappingBuilder) floatList(field string, v []float64) {
	if len(v) > 0 {
		b.m.Set(field, document.Normalize(v))
	}
}

func (b *mappingBuilder) nested(field string, v Value) {
	b.m.Set(field, v.ToMapping())
}

func mapEach[T Value](b *mappingBuilder, field string, values []T) {
	if len(values) == 0 {
		return
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.ToMapping()
	}
	b.m.Set(field, out)
}
