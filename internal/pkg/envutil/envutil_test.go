package envutil

import (
	"reflect"
	"testing"
)

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("FANOUT_CONCURRENCY", "12")
	if got := GetEnvAsInt("FANOUT_CONCURRENCY", 4, nil); got != 12 {
		t.Fatalf("want=12 got=%d", got)
	}
	t.Setenv("FANOUT_CONCURRENCY", "twelve")
	if got := GetEnvAsInt("FANOUT_CONCURRENCY", 4, nil); got != 4 {
		t.Fatalf("unparseable should fall back: got=%d", got)
	}
}

func TestGetEnvAsBoolAndList(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "yes")
	if !GetEnvAsBool("OTEL_ENABLED", false, nil) {
		t.Fatalf("expected true")
	}
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a , ,http://b")
	got := GetEnvAsList("CORS_ALLOWED_ORIGINS", nil, nil)
	if !reflect.DeepEqual(got, []string{"http://a", "http://b"}) {
		t.Fatalf("list: %v", got)
	}
	if got := GetEnv("DOES_NOT_EXIST_FOR_TEST", "fallback", nil); got != "fallback" {
		t.Fatalf("default: %q", got)
	}
}
