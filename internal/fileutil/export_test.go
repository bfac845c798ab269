package fileutil

// SetLink replaces the hard link call used by Publish.
func (tc *TempContext) SetLink(fn func(oldname, newname string) error) {
	tc.link = fn
}
