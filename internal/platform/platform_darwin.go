//go:build darwin

package platform

func init() {
	preferred = []string{"xhotkey"}
}
