package db

import "testing"

func TestOpen_InvalidDSN(t *testing.T) {
	testCases := []struct {
		name string
		dsn  string
	}{
		{"empty string", ""},
		{"invalid format", "invalid-dsn"},
		{"missing driver", "://localhost/test"},
		{"missing host", "postgres://user:pass@/db"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := Open(tc.dsn)
			if err == nil {
				if pool != nil {
					pool.Close()
				}
				t.Errorf("Open with invalid DSN %q should return error", tc.dsn)
			}
			if pool != nil {
				t.Error("Open should return nil pool when error occurs")
			}
		})
	}
}
