// Package permissions is the static catalog of permission flags granted to
// team members. Each flag belongs to exactly one category; a Set holds the
// boolean value of every flag and AccessLevel is the coarse tier stored next
// to the flags.
package permissions
