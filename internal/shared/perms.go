package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"
)

// Recruitment domain permissions.
const (
	PermCompaniesView = "company.view"
	PermCompaniesEdit = "company.edit"

	PermCompanyMembersView   = "company.members.view"
	PermCompanyMembersEdit   = "company.members.edit"
	PermCompanyFollowersView = "company.followers.view"
	PermFollowersApprove     = "company.followers.approve"

	PermJobPostsView = "jobposts.view"
	PermJobPostsEdit = "jobposts.edit"

	PermReportsView = "reports.view"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermPermissionsEdit,
	}
}
