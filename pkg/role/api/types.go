package api

// RoleResponse is the JSON form of a registered role
type RoleResponse struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Capabilities []string `json:"capabilities"`
}
