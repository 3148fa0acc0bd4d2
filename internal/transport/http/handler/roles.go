package handler

import (
	"net/http"

	"github.com/flightdesk-api/internal/domain"
)

type roleView struct {
	Role         domain.Role `json:"role"`
	Rank         int         `json:"rank"`
	Capabilities []string    `json:"capabilities"`
}

// ListRoles returns the role hierarchy with the default capabilities of each role.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	roles := domain.Roles()
	out := make([]roleView, 0, len(roles))
	for _, r := range roles {
		rank, _ := r.Rank()
		out = append(out, roleView{Role: r, Rank: rank, Capabilities: domain.DefaultCapabilities(r)})
	}
	writeJSON(w, http.StatusOK, DataEnvelope[roleView]{Data: out})
}
