package types

import "strconv"

// ChargeMetadata is the fixed, versioned record attached to every gateway
// charge. Downstream consumers (ledger writer, reconciliation tooling) key off
// FeeModel to deserialize the per-party amounts.
type ChargeMetadata struct {
	Type          TransactionType
	FeeModel      string
	ReservationID string
	RenterID      string
	HostID        string
	BaseAmount    int64
	RenterFee     int64
	HostFee       int64
	HostPayout    int64
	PlatformFee   int64
}

func (m *ChargeMetadata) ToMap() map[string]string {
	return map[string]string{
		"type":          string(m.Type),
		"feeModel":      m.FeeModel,
		"reservationId": m.ReservationID,
		"renterId":      m.RenterID,
		"hostId":        m.HostID,
		"baseAmount":    strconv.FormatInt(m.BaseAmount, 10),
		"renterFee":     strconv.FormatInt(m.RenterFee, 10),
		"hostFee":       strconv.FormatInt(m.HostFee, 10),
		"hostPayout":    strconv.FormatInt(m.HostPayout, 10),
		"platformFee":   strconv.FormatInt(m.PlatformFee, 10),
	}
}
