package model

// Capabilities describes what the console shows a viewer. It only decides
// which controls are rendered; the API performs the real authorization.
type Capabilities struct {
	role Role
}

// CapabilitiesFor derives the capabilities of a user from its role
func CapabilitiesFor(u User) Capabilities {
	return Capabilities{role: u.Role}
}

// IsAdmin reports whether the viewer has the admin role
func (c Capabilities) IsAdmin() bool {
	return c.role == RoleAdmin
}

// CanManageCatalog reports whether create/edit/delete controls are shown
func (c Capabilities) CanManageCatalog() bool {
	return c.IsAdmin()
}

// CanEditRole reports whether the profile role selector is enabled
func (c Capabilities) CanEditRole() bool {
	return c.IsAdmin()
}
