// Package selabel restores security labels on filesystem trees from a
// file_contexts-style rule table.
package selabel
