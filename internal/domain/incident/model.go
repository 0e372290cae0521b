package incident

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

// Incident is one occurrence attended by a shift team. A finalized incident
// always carries a final status and a finalization time.
type Incident struct {
	ID             uuid.UUID
	TeamID         uuid.UUID
	RegistryNumber string
	StartedAt      time.Time
	Type           string
	FinalStatus    string
	FinalizedAt    *time.Time
	Finalized      bool
	AudioNotes     *string

	TeamLabel string
}

func maxLen(v *apierr.ValidationError, field, s string, n int) {
	if utf8.RuneCountInString(s) > n {
		v.Add(field, fmt.Sprintf("ensure this field has no more than %d characters", n))
	}
}

func (i *Incident) validate() *apierr.ValidationError {
	v := &apierr.ValidationError{}
	if i.TeamID == uuid.Nil {
		v.Add("equipe", "this field is required")
	}
	if strings.TrimSpace(i.RegistryNumber) == "" {
		v.Add("num_reg_central", "this field is required")
	}
	maxLen(v, "num_reg_central", i.RegistryNumber, 20)
	if i.StartedAt.IsZero() {
		v.Add("data_hora_inicio", "this field is required")
	}
	if strings.TrimSpace(i.Type) == "" {
		v.Add("tipo_ocorrencia", "this field is required")
	}
	maxLen(v, "status_final", i.FinalStatus, 50)
	if i.Finalized {
		if strings.TrimSpace(i.FinalStatus) == "" {
			v.Add("status_final", "required to finalize the incident")
		}
		if i.FinalizedAt == nil {
			v.Add("data_hora_finalizacao", "required to finalize the incident")
		}
	}
	return v
}

// LocationFields is the part of a location a client writes, nested in the
// incident payload.
type LocationFields struct {
	Address     string  `json:"endereco"`
	District    string  `json:"bairro"`
	Photo       *string `json:"foto_local"`
	Dispatched  *string `json:"meios_acionados"`
	TrafficInfo *string `json:"info_transito"`
	GPSLink     *string `json:"link_gps"`
}

// validate checks l. A partial write may leave endereco and bairro blank;
// they are then taken from the stored location.
func (l *LocationFields) validate(partial bool) *apierr.ValidationError {
	v := &apierr.ValidationError{}
	if !partial && strings.TrimSpace(l.Address) == "" {
		v.Add("endereco", "this field is required")
	}
	if !partial && strings.TrimSpace(l.District) == "" {
		v.Add("bairro", "this field is required")
	}
	maxLen(v, "bairro", l.District, 50)
	if l.GPSLink != nil {
		maxLen(v, "link_gps", *l.GPSLink, 255)
	}
	return v
}

// fillFrom copies into l every field the write left blank from stored.
func (l *LocationFields) fillFrom(stored *LocationFields) {
	if strings.TrimSpace(l.Address) == "" {
		l.Address = stored.Address
	}
	if strings.TrimSpace(l.District) == "" {
		l.District = stored.District
	}
	l.Photo = lo.CoalesceOrEmpty(l.Photo, stored.Photo)
	l.Dispatched = lo.CoalesceOrEmpty(l.Dispatched, stored.Dispatched)
	l.TrafficInfo = lo.CoalesceOrEmpty(l.TrafficInfo, stored.TrafficInfo)
	l.GPSLink = lo.CoalesceOrEmpty(l.GPSLink, stored.GPSLink)
}

// Location is the single address record of an incident.
type Location struct {
	ID         uuid.UUID `json:"id"`
	IncidentID uuid.UUID `json:"ocorrencia"`
	LocationFields
}

func (l *Location) Validate() error {
	v := l.LocationFields.validate(false)
	if l.IncidentID == uuid.Nil {
		v.Add("ocorrencia", "this field is required")
	}
	return v.Err()
}

// MaterialUsed records stock consumed during an incident. RecordedBy is set
// by the server.
type MaterialUsed struct {
	ID            uuid.UUID `json:"id"`
	IncidentID    uuid.UUID `json:"ocorrencia"`
	ItemName      string    `json:"item"`
	ItemID        uuid.UUID `json:"item_id"`
	Quantity      int       `json:"quantidade_usada"`
	RecorderLabel string    `json:"usuario"`
	RecordedBy    uuid.UUID `json:"usuario_id"`
}

// SupportVehicle is another team sent to back up an incident.
type SupportVehicle struct {
	ID         uuid.UUID `json:"id"`
	IncidentID uuid.UUID `json:"ocorrencia_mestre"`
	VehicleTag string    `json:"vtr_apoio_sigla"`
	ArrivedAt  time.Time `json:"data_hora_apoio"`
	TeamID     uuid.UUID `json:"equipe_apoio_id"`
	// TeamLabel is filled on reads and ignored on writes.
	TeamLabel string `json:"equipe_apoio"`
}

func (s *SupportVehicle) Validate() error {
	v := &apierr.ValidationError{}
	if s.IncidentID == uuid.Nil {
		v.Add("ocorrencia_mestre", "this field is required")
	}
	if strings.TrimSpace(s.VehicleTag) == "" {
		v.Add("vtr_apoio_sigla", "this field is required")
	}
	maxLen(v, "vtr_apoio_sigla", s.VehicleTag, 20)
	if s.ArrivedAt.IsZero() {
		v.Add("data_hora_apoio", "this field is required")
	}
	if s.TeamID == uuid.Nil {
		v.Add("equipe_apoio_id", "this field is required")
	}
	return v.Err()
}
