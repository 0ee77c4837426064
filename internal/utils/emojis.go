package utils

// IconEmoji maps a task icon name to the emoji shown in chat. Unknown names
// fall back to the calendar emoji rather than failing.
func IconEmoji(icon string) string {
	switch icon {
	case "Bed":
		return "🛏️"
	case "GlassWater":
		return "🥛"
	case "Pill":
		return "💊"
	case "ArrowUp":
		return "⬆️"
	case "Snowflake":
		return "❄️"
	case "WrapText":
		return "🩹"
	case "Dumbbell":
		return "🏋️"
	case "Calendar":
		return "📅"
	case "Thermometer":
		return "🌡️"
	case "Bone":
		return "🦴"
	case "Eye":
		return "👁️"
	case "Bug":
		return "🦠"
	case "Heart":
		return "❤️"
	default:
		return "📅"
	}
}

// CheckMark renders a completion state.
func CheckMark(done bool) string {
	if done {
		return "✅"
	}
	return "⬜"
}
