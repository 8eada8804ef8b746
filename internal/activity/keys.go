package activity

// KeyCode is a virtual-key code. Values follow the Windows virtual-key table,
// which platform sources translate into.
type KeyCode uint16

// Named keys on the watch list.
const (
	KeyBackspace KeyCode = 0x08
	KeyTab       KeyCode = 0x09
	KeyEnter     KeyCode = 0x0D
	KeyShift     KeyCode = 0x10
	KeyControl   KeyCode = 0x11
	KeyAlt       KeyCode = 0x12
	KeyCapsLock  KeyCode = 0x14
	KeyEscape    KeyCode = 0x1B
	KeySpace     KeyCode = 0x20
	KeyPageUp    KeyCode = 0x21
	KeyPageDown  KeyCode = 0x22
	KeyEnd       KeyCode = 0x23
	KeyHome      KeyCode = 0x24
	KeyLeft      KeyCode = 0x25
	KeyUp        KeyCode = 0x26
	KeyRight     KeyCode = 0x27
	KeyDown      KeyCode = 0x28
	KeyInsert    KeyCode = 0x2D
	KeyDelete    KeyCode = 0x2E
	Key0         KeyCode = 0x30
	KeyA         KeyCode = 0x41
	KeyZ         KeyCode = 0x5A
	KeyLeftWin   KeyCode = 0x5B
	KeyF1        KeyCode = 0x70
	KeyF12       KeyCode = 0x7B
)

// WatchedKeys is the fixed set of keys sampled for typing activity.
var WatchedKeys = buildWatchList()

func buildWatchList() []KeyCode {
	keys := []KeyCode{
		KeySpace, KeyBackspace, KeyEnter, KeyEscape, KeyTab,
		KeyShift, KeyControl, KeyAlt, KeyLeftWin, KeyCapsLock,
		KeyPageUp, KeyPageDown, KeyEnd, KeyHome,
		KeyLeft, KeyUp, KeyRight, KeyDown,
		KeyInsert, KeyDelete,
	}
	for k := KeyA; k <= KeyZ; k++ {
		keys = append(keys, k)
	}
	for k := Key0; k <= Key0+9; k++ {
		keys = append(keys, k)
	}
	for k := KeyF1; k <= KeyF12; k++ {
		keys = append(keys, k)
	}
	return keys
}
