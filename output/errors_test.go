package output

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		want       ErrorCategory
	}{
		{name: "4xx status", statusCode: 404, want: Category4xx},
		{name: "5xx status", statusCode: 503, want: Category5xx},
		{name: "timeout error", err: context.DeadlineExceeded, want: CategoryTimeout},
		{name: "dns error", err: &net.DNSError{Err: "no such host"}, want: CategoryDNSFailure},
		{name: "no error, no status", want: CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err, tt.statusCode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCategory(t *testing.T) {
	assert.Equal(t, "Timeouts", FormatCategory(CategoryTimeout))
	assert.Equal(t, "Other Errors", FormatCategory(ErrorCategory("bogus")))
}
