package types

// Order 范围扫描方向
type Order int

const (
	// Ascending 按键升序
	Ascending Order = 1
	// Descending 按键降序
	Descending Order = 2
)

// String 返回扫描方向的字符串表示
func (o Order) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return "unknown"
	}
}
