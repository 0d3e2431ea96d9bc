package storage

// View selects which registry view a native store reads and writes. On
// 64-bit Windows, 32-bit installers record some keys under the 32-bit view.
type View int

const (
	ViewDefault View = iota
	View32
	View64
)

func (v View) String() string {
	switch v {
	case View32:
		return "32-bit"
	case View64:
		return "64-bit"
	default:
		return "default"
	}
}
