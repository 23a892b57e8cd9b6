// Package permission implements the role registry and the permission resolver.
//
// A user's capabilities come from two places: the role they hold, which ranks
// them in the authority order and supplies default permissions, and the
// permission document stored with the user, which an administrator may edit.
//
// # Authority
//
// Roles are totally ordered (employee < assistantmanager < manager = custom <
// admin < superadmin). A user may only assign roles strictly below their own
// and may only edit or delete users strictly below them. Nobody edits or
// deletes themselves.
//
// # Resolution
//
// Resolve trusts the stored document, fills every missing core flag with
// false and reports whether the result differs from the role defaults.
//
// # Groups
//
// modelUpload and userManagement are umbrella flags. Set.Apply keeps them
// consistent with their children on every single mutation.
package permission
