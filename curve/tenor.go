package curve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/onavg/utils"
)

// addTenor shifts t by tenor strings like "1W", "3M", "10Y" or "2D" (calendar days).
func addTenor(t time.Time, tenor string) (time.Time, error) {
	tenor = strings.TrimSpace(strings.ToUpper(tenor))
	if len(tenor) < 2 {
		return time.Time{}, fmt.Errorf("addTenor: invalid tenor %q", tenor)
	}
	unit := tenor[len(tenor)-1]
	n, err := strconv.Atoi(tenor[:len(tenor)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("addTenor: invalid tenor %q", tenor)
	}

	switch unit {
	case 'D':
		return t.AddDate(0, 0, n), nil
	case 'W':
		return t.AddDate(0, 0, 7*n), nil
	case 'M':
		return utils.AddMonth(t, n), nil
	case 'Y':
		return utils.AddMonth(t, 12*n), nil
	default:
		return time.Time{}, fmt.Errorf("addTenor: invalid tenor %q", tenor)
	}
}
