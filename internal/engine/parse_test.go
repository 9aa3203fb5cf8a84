package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "15000", want: 15000},
		{raw: "15,000", want: 15000},
		{raw: "¥15,000", want: 15000},
		{raw: "￥15,000-", wantErr: true},
		{raw: "１５，０００円", want: 15000},
		{raw: " 8250 円 ", want: 8250},
		{raw: "1234.5", want: 1235},
		{raw: "1234.4", want: 1234},
		{raw: "0", want: 0},
		{raw: "-1", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "円", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "9223372036854775807", want: 9223372036854775807},
		{raw: "9223372036854775808", wantErr: true},
		{raw: "18446744073709551616", wantErr: true},
		{raw: "99,999,999,999,999,999,999,999", wantErr: true},
		{raw: "9223372036854775807.6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-04-01", "2024/4/1", "2024年4月1日", "2024.04.01", "２０２４年４月１日", " 2024 年 04 月 01 日 "} {
		t.Run(raw, func(t *testing.T) {
			got, ok := ParseDate(raw)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}

	for _, raw := range []string{"", "April 1", "2024-13-01", "令和6年4月1日"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}
