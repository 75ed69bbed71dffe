package forms

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"
)

// InputLayout is the value format of <input type="datetime-local">.
const InputLayout = "2006-01-02T15:04"

func (d *Decoder) encoder() *schema.Encoder {
	enc := schema.NewEncoder()
	enc.RegisterEncoder(time.Time{}, func(v reflect.Value) string {
		return d.formatTime(v.Interface().(time.Time))
	})
	enc.RegisterEncoder((*time.Time)(nil), func(v reflect.Value) string {
		if v.IsNil() {
			return ""
		}
		return d.formatTime(*v.Interface().(*time.Time))
	})
	enc.RegisterEncoder((*int)(nil), func(v reflect.Value) string {
		if v.IsNil() {
			return ""
		}
		return strconv.Itoa(int(v.Elem().Int()))
	})
	enc.RegisterEncoder((*uint)(nil), func(v reflect.Value) string {
		if v.IsNil() {
			return ""
		}
		return strconv.FormatUint(v.Elem().Uint(), 10)
	})
	return enc
}

func (d *Decoder) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(d.loc).Format(InputLayout)
}

// Encode turns src back into form values, the reverse of Decode. Times are
// rendered in the site's time zone, booleans as "true" or "false".
func (d *Decoder) Encode(src any) (url.Values, error) {
	values := url.Values{}
	if err := d.encoder().Encode(src, values); err != nil {
		return nil, err
	}
	return values, nil
}

// Only keeps the given keys of values.
func Only(values url.Values, keys ...string) url.Values {
	out := make(url.Values, len(keys))
	for _, key := range keys {
		if v, ok := values[key]; ok {
			out[key] = v
		}
	}
	return out
}

// Reset sets the fields of the struct dst points to whose schema names are
// listed to their zero value. Decode skips blank inputs, so fields that an
// edit form may clear are reset first.
func Reset(dst any, names ...string) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	reset(v.Elem(), set)
}

func reset(v reflect.Value, names map[string]bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			reset(v.Field(i), names)
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		if name == "" {
			name = f.Name
		}
		if names[name] {
			v.Field(i).SetZero()
		}
	}
}
