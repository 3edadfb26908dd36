package pages

import (
	"strconv"
	"strings"
	"time"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

func phaseClass(p domain.Phase) string {
	return "phase-" + p.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func joinBrokers(brokers []string) string {
	if len(brokers) == 0 {
		return "-"
	}
	return strings.Join(brokers, ", ")
}

func count(n int64) string {
	return strconv.FormatInt(n, 10)
}
