package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DeliveryZone names an area the restaurant delivers to and its fee.
type DeliveryZone struct {
	Name string          `json:"name"`
	Fee  decimal.Decimal `json:"fee"`
}

// DeliveryZones is the ordered list of zones offered by a restaurant,
// stored as a JSONB column.
type DeliveryZones []DeliveryZone

// Value serializes the zones to JSON.
func (z DeliveryZones) Value() (driver.Value, error) {
	if z == nil {
		return nil, nil
	}
	return json.Marshal(z)
}

// Scan decodes JSONB into the zone list.
func (z *DeliveryZones) Scan(value interface{}) error {
	if value == nil {
		*z = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded DeliveryZones
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*z = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
