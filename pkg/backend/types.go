package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	errs "github.com/matzehuels/curricula/pkg/errors"
)

// DefaultMaxCredits is the planner's credit cap when the caller sends none.
const DefaultMaxCredits = 22

// Course is a catalog course or a planner recommendation.
type Course struct {
	ID      string  `json:"id,omitempty"`
	Code    string  `json:"codigo"`
	Name    string  `json:"nombre"`
	Program string  `json:"carrera,omitempty"`
	Credits int     `json:"creditos"`
	Impact  float64 `json:"impacto,omitempty"`
	Level   int     `json:"nivel,omitempty"`
}

// UnmarshalJSON accepts numeric ids and the older value/label field names.
func (c *Course) UnmarshalJSON(data []byte) error {
	type plain Course
	var raw struct {
		plain
		ID    json.RawMessage `json:"id"`
		Value string          `json:"value"`
		Label string          `json:"label"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Course(raw.plain)
	c.ID = scalarString(raw.ID)
	if c.Code == "" {
		c.Code = c.ID
	}
	if c.Code == "" {
		c.Code, _, _ = strings.Cut(raw.Value, "|")
	}
	if c.Name == "" {
		c.Name = raw.Label
	}
	if c.Name == "" {
		c.Name = c.Code
	}
	return nil
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return string(raw)
}

// PlanRequest asks the planner for the next term.
type PlanRequest struct {
	History    []string `json:"historial"`
	MaxCredits int      `json:"max_creditos"`
	Program    *string  `json:"carrera"`
}

// WithDefaults fills an empty history, a zero credit cap, and an empty
// program the way the planner expects them.
func (r PlanRequest) WithDefaults() PlanRequest {
	if r.History == nil {
		r.History = []string{}
	}
	if r.MaxCredits <= 0 {
		r.MaxCredits = DefaultMaxCredits
	}
	if r.Program != nil && strings.TrimSpace(*r.Program) == "" {
		r.Program = nil
	}
	return r
}

// PlanResponse is the planner's answer. Raw holds the full backend payload
// so proxies can forward fields this type does not model.
type PlanResponse struct {
	Recommended []Course        `json:"recomendacion_optima"`
	Available   []Course        `json:"cursos_disponibles"`
	Raw         json.RawMessage `json:"-"`
}

// Credits sums the credits of the recommended courses.
func (p PlanResponse) Credits() int {
	total := 0
	for _, c := range p.Recommended {
		total += c.Credits
	}
	return total
}

// User is a backend user profile.
type User struct {
	ID            string   `json:"id"`
	Email         string   `json:"email,omitempty"`
	Program       string   `json:"carrera,omitempty"`
	StudentCode   string   `json:"codigo_alumno,omitempty"`
	ApprovedCodes []string `json:"historial_aprobados,omitempty"`
	TotalCredits  int      `json:"creditos_totales"`
}

// UserUpdate is a partial profile update; nil fields are left unchanged.
type UserUpdate struct {
	Program      *string `json:"carrera,omitempty"`
	StudentCode  *string `json:"codigo_alumno,omitempty"`
	TotalCredits *int    `json:"creditos_totales,omitempty"`
}

// HistoryCourse is one approved course as stored by the backend.
type HistoryCourse struct {
	Code       string `json:"curso_codigo"`
	Program    string `json:"carrera"`
	Name       string `json:"nombre,omitempty"`
	Credits    int    `json:"creditos,omitempty"`
	Level      int    `json:"nivel,omitempty"`
	ApprovedAt string `json:"aprobado_en,omitempty"`
}

// HistoryResponse is a user's approved-course history.
type HistoryResponse struct {
	Courses      []HistoryCourse `json:"cursos"`
	TotalCredits int             `json:"total_creditos"`
}

// HistoryAdd adds one course to a history.
type HistoryAdd struct {
	Code    string `json:"curso_codigo"`
	Program string `json:"carrera"`
}

// HistoryUpdate changes one history entry.
type HistoryUpdate struct {
	Program    string `json:"carrera"`
	ApprovedAt string `json:"aprobado_en,omitempty"`
	Level      *int   `json:"nivel,omitempty"`
}

// LoginRequest registers a signed-in user with the backend.
type LoginRequest struct {
	Email  string `json:"email"`
	UserID string `json:"supabase_user_id"`
}

// decodeList accepts a bare JSON array or an object holding the array under
// one of keys. Anything else is rejected.
func decodeList[T any](data []byte, what string, keys ...string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var out []T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, errs.Wrap(errs.ErrCodeBackend, err, "decode %s", what)
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil && obj != nil {
		for _, key := range keys {
			raw := bytes.TrimSpace(obj[key])
			if len(raw) > 0 && raw[0] == '[' {
				return decodeList[T](raw, what)
			}
		}
	}
	return nil, errs.New(errs.ErrCodeBackend, "unexpected %s payload: want an array or an object with %s", what, strings.Join(keys, " or "))
}
