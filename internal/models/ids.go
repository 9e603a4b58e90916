package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID prefixes, one per entity.
const (
	PrefixTicket          = "TKT"
	PrefixTracking        = "MT"
	PrefixDeliveryRequest = "DREQ"
	PrefixUser            = "USR"
	PrefixDonation        = "DON"
	PrefixProof           = "PRF"
)

// NewID returns prefix followed by twelve upper-case hex digits, e.g. TKT-3F9A0C71B2DE.
func NewID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex[:12]))
}
