package configuration

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// secondsToDurationHookFunc returns a mapstructure decode hook that
// reads bare numbers targeting a time.Duration as seconds. Persisted
// configurations store intervals as plain numbers (e.g. 2.5), which
// would otherwise decode as nanoseconds.
func secondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != durationType {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}

// curvePointsHookFunc returns a mapstructure decode hook that accepts
// curve points in two formats:
//  1. the canonical list form: [{temp: 20, pwm: 30}, ...]
//  2. a compact "temp: pwm" map: {20: 30, 40: 80, ...}
//
// The compact form is sorted by temperature while decoding so the result
// is deterministic regardless of map iteration order.
func curvePointsHookFunc() mapstructure.DecodeHookFuncType {
	pointsType := reflect.TypeOf([]CurvePoint{})

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != pointsType {
			return data, nil
		}

		asMap, ok := data.(map[string]interface{})
		if !ok {
			// not the compact form, let the default decoding handle it
			return data, nil
		}

		points := make([]CurvePoint, 0, len(asMap))
		for key, value := range asMap {
			temp, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("curve point temperature is not a number: %v", key)
			}
			pwm, err := toInt(value)
			if err != nil {
				return nil, fmt.Errorf("curve point pwm for %d°C is not a number: %v", temp, value)
			}
			points = append(points, CurvePoint{Temp: temp, Pwm: pwm})
		}

		sort.Slice(points, func(i, j int) bool {
			return points[i].Temp < points[j].Temp
		})

		return points, nil
	}
}

func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		secondsToDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		curvePointsHookFunc(),
	)
}
