package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/radiopm/radiopm-server/internal/ps"
)

// Adapter represents a managed WLAN adapter
type Adapter struct {
	BaseModel

	Name        string `json:"name" db:"name" validate:"required,max=100"`
	MACAddress  string `json:"macAddress" db:"mac_address" validate:"required,mac,max=17"`
	Description string `json:"description" db:"description" validate:"max=500"`

	// PowerSave holds the adapter's power-save parameters. It is
	// populated with defaults at registration and mutated only through
	// the configuration API; the controller reads it when building a
	// request.
	PowerSave PSParameters `json:"powerSave" db:"power_save"`

	LastSeenAt *time.Time `json:"lastSeenAt,omitempty" db:"last_seen_at"`
}

// PSParameters wraps ps.Parameters with JSONB column support
type PSParameters ps.Parameters

// Value implements driver.Valuer interface
func (p PSParameters) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface
func (p *PSParameters) Scan(value interface{}) error {
	if value == nil {
		*p = PSParameters(ps.DefaultParameters())
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, p)
	case string:
		return json.Unmarshal([]byte(data), p)
	default:
		return fmt.Errorf("unsupported power_save column type %T", value)
	}
}
