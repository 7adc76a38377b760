package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"coopsched/pkg/logx"
)

func TestRunDemo(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, runDemo(&buf, logx.Nop()))

	var got []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.HasPrefix(line, "#") {
			got = append(got, line)
		}
	}
	want := []string{
		"2 C", "5 A", "7 B", "10 D", "14 B", "20 D", "21 B", "28 B", "30 D",
		"40 D", "50 D",
		"58 B", "60 D",
		"61 B", "64 B", "67 B", "70 D", "70 B",
		"73 B", "76 B", "79 B",
		"82 B", "82 E", "83 E", "84 E", "85 B", "85 E",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("demo output (-want +got):\n%s", diff)
	}
	require.Contains(t, buf.String(), "# 31: deactivate B")
}
