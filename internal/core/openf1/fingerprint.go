package openf1

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Params holds query parameters. A nil value means "not set" and is left
// out of both the query string and the fingerprint.
type Params map[string]any

type param struct {
	key   string
	value any
}

// Fingerprint returns the cache key for a request: the endpoint followed by
// the JSON encoding of its sorted, non-nil key/value pairs, for example
// sessions:[["session_name","Race"],["year",2024]].
func Fingerprint(endpoint string, params Params) (string, error) {
	pairs, err := normalizeParams(params)
	if err != nil {
		return "", err
	}
	return fingerprintPairs(normalizeEndpoint(endpoint), pairs), nil
}

func fingerprintPairs(endpoint string, pairs []param) string {
	encoded := make([][2]any, 0, len(pairs))
	for _, p := range pairs {
		encoded = append(encoded, [2]any{p.key, p.value})
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		// normalizeParams only lets JSON-safe scalars through.
		data = []byte(fmt.Sprint(encoded))
	}
	return endpoint + ":" + string(data)
}

func normalizeParams(params Params) ([]param, error) {
	pairs := make([]param, 0, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		scalar, err := scalarValue(key, value)
		if err != nil {
			return nil, err
		}
		if scalar == nil {
			continue
		}
		pairs = append(pairs, param{key: key, value: scalar})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	return pairs, nil
}

// scalarValue folds every numeric kind onto int64 or float64 so that the
// same logical value always fingerprints the same way.
func scalarValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case string, bool, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return uintValue(key, uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintValue(key, v)
	case float32:
		return float64(v), nil
	case *string:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *int:
		if v == nil {
			return nil, nil
		}
		return int64(*v), nil
	default:
		return nil, &MalformedInputError{Field: key, Value: fmt.Sprintf("%v", value)}
	}
}

func uintValue(key string, v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, &MalformedInputError{Field: key, Value: strconv.FormatUint(v, 10)}
	}
	return int64(v), nil
}

func encodeQuery(pairs []param) string {
	values := url.Values{}
	for _, p := range pairs {
		if p.value == nil {
			continue
		}
		values.Add(p.key, queryValue(p.value))
	}
	return values.Encode()
}

func queryValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ParseParamValue turns a textual filter value into the scalar a typed
// caller would pass, so year=2024 from a query string fingerprints like
// Params{"year": 2024}. Non-numeric text is returned unchanged.
func ParseParamValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.ContainsAny(trimmed, "xXpP_") {
		return raw
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return raw
}

// ParamsFromValues converts url.Values into Params using ParseParamValue.
// Only the first value of a repeated key is kept.
func ParamsFromValues(values url.Values) Params {
	params := make(Params, len(values))
	for key, list := range values {
		if len(list) == 0 {
			continue
		}
		params[key] = ParseParamValue(list[0])
	}
	return params
}
