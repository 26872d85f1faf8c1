package types

// StatusDisplay is how a status is presented on every surface.
type StatusDisplay struct {
	Label string // human label (Thai with English hint)
	Tone  string // color token: green, purple, red, yellow, orange, gray
	Icon  string // icon glyph used by the page and the bot
}

// SeverityDisplay is how a severity badge is presented.
type SeverityDisplay struct {
	Label string
	Tone  string
	Icon  string
}

// Display maps a status to its presentation. UNCLEAR shares the fallback
// arm so any value that slipped past validation still renders as unclear.
func (s Status) Display() StatusDisplay {
	switch s {
	case StatusNormal:
		return StatusDisplay{Label: "ปกติ (Normal)", Tone: "green", Icon: "✅"}
	case StatusFlashover:
		return StatusDisplay{Label: "เกิด Flashover", Tone: "purple", Icon: "⚡"}
	case StatusBroken:
		return StatusDisplay{Label: "แตกหัก (Broken)", Tone: "red", Icon: "❌"}
	case StatusDirty:
		return StatusDisplay{Label: "สกปรก/มีคราบ (Dirty)", Tone: "yellow", Icon: "⚠️"}
	case StatusCorrosion:
		return StatusDisplay{Label: "มีสนิม (Corrosion)", Tone: "orange", Icon: "🔧"}
	case StatusUnclear:
		fallthrough
	default:
		return StatusDisplay{Label: "ไม่ชัดเจน (Unclear)", Tone: "gray", Icon: "❓"}
	}
}

// Display maps a severity to its badge. NORMAL is the fallback arm.
func (s Severity) Display() SeverityDisplay {
	switch s {
	case SeverityHigh:
		return SeverityDisplay{Label: "CRITICAL / สูง", Tone: "red", Icon: "🔴"}
	case SeverityMedium:
		return SeverityDisplay{Label: "MODERATE / ปานกลาง", Tone: "orange", Icon: "🟠"}
	case SeverityLow:
		return SeverityDisplay{Label: "LOW / ต่ำ", Tone: "yellow", Icon: "🟡"}
	case SeverityNormal:
		fallthrough
	default:
		return SeverityDisplay{Label: "NORMAL / ปกติ", Tone: "green", Icon: "🟢"}
	}
}
