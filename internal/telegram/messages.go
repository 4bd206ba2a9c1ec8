package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

// Every text is sent with HTML parse mode. Dynamic values go through
// html.EscapeString.

const (
	textDownloading = "⏳ <b>Downloading TikTok...</b>"
	textSending     = "📤 <b>Sending video...</b>"

	textNotSupported = "❌ <b>Not a TikTok URL</b>\n\n" +
		"Please send a valid TikTok link like:\n" +
		"• tiktok.com/@user/video/...\n" +
		"• vm.tiktok.com/..."

	textUnavailable    = "❌ Service temporarily unavailable"
	textRateLimited    = "🐢 <b>Slow down</b>\nPlease wait a moment before sending another link."
	textDeliveryFailed = "❌ <b>Failed to send video</b>"
	textTooSmall       = "❌ <b>File too small or corrupted</b>"
	textInternalError  = "❌ <b>An error occurred</b>\nPlease try again"
	textBusy           = "⌛ The bot is shutting down, please try again in a minute."
	textUnknownCommand = "Unknown command. Send /help for usage."
)

func startText(st domain.ServiceStatus) string {
	if !st.ToolAvailable {
		return "🎵 <b>TikTok Video Downloader</b>\n\n" +
			"❌ yt-dlp not available\n" +
			"Bot is currently unavailable."
	}

	return fmt.Sprintf(`🎵 <b>TikTok Video Downloader</b>

✅ Ready! yt-dlp v%s

<b>How to use:</b>
Just send me any TikTok link!

<b>Examples:</b>
• tiktok.com/@user/video/...
• vm.tiktok.com/...
• vt.tiktok.com/...

<b>Features:</b>
🎥 High quality downloads
💾 %s max file size
🧹 Auto cleanup

<b>Commands:</b>
/help - Show help
/status - Bot status

Send me a TikTok link to get started! 🚀`,
		html.EscapeString(st.ToolVersion), formatMB(st.MaxFileMB))
}

func helpText(maxFileMB float64) string {
	return fmt.Sprintf(`🤖 <b>TikTok Downloader Help</b>

<b>Usage:</b>
1. Copy a TikTok video link
2. Send it to this bot
3. Receive the video file

<b>Supported links:</b>
✅ tiktok.com/@username/video/...
✅ vm.tiktok.com/...
✅ vt.tiktok.com/...
✅ www.tiktok.com/...

<b>Limits:</b>
• TikTok videos only
• Max %s file size
• Public videos only

<b>Commands:</b>
/start - Welcome message
/help - This help
/status - Bot status`, formatMB(maxFileMB))
}

func statusText(st domain.ServiceStatus) string {
	tool := "❌ yt-dlp: Missing"
	if st.ToolAvailable {
		tool = "✅ yt-dlp: v" + html.EscapeString(st.ToolVersion)
	}

	var b strings.Builder
	b.WriteString("🤖 <b>Bot Status</b>\n\n")
	b.WriteString("<b>System:</b>\n✅ Bot running\n")
	b.WriteString(tool + "\n\n")

	b.WriteString("<b>Storage:</b>\n")
	fmt.Fprintf(&b, "📁 Temp files: %d (%s)\n", st.Workspace.Files, humanize.IBytes(uint64(st.Workspace.TotalBytes)))
	if st.Workspace.DiskTotalBytes > 0 {
		fmt.Fprintf(&b, "💽 Disk free: %s of %s\n",
			humanize.IBytes(uint64(st.Workspace.DiskFreeBytes)),
			humanize.IBytes(uint64(st.Workspace.DiskTotalBytes)))
	}
	b.WriteString("\n")

	b.WriteString("<b>Limits:</b>\n")
	fmt.Fprintf(&b, "💾 Max file size: %s\n", formatMB(st.MaxFileMB))
	fmt.Fprintf(&b, "🧹 Auto cleanup: %s\n", formatRetention(st.Retention.Minutes()))

	if total := countTotal(st.Recent); total > 0 {
		fmt.Fprintf(&b, "\n<b>Recent:</b>\n📊 %d requests, %d delivered\n", total, st.Recent[domain.OutcomeDelivered])
	}

	b.WriteString("\nReady for TikTok downloads!")
	return b.String()
}

// outcomeText is the reply for a request that did not end in delivery.
// maxMB is the configured upload ceiling quoted in the too-large reply.
func outcomeText(res domain.Result, maxMB float64) string {
	switch res.Outcome {
	case domain.OutcomeRejected:
		return textNotSupported
	case domain.OutcomeServiceUnavailable:
		return textUnavailable
	case domain.OutcomeDownloadFailed:
		return "❌ <b>Download failed</b>\n\n" + failureText(res.Reason)
	case domain.OutcomeTooLarge:
		return fmt.Sprintf("❌ <b>File too large: %.1fMB</b>\nTelegram limit: %s", res.SizeMB, formatMB(maxMB))
	case domain.OutcomeTooSmall:
		return textTooSmall
	case domain.OutcomeDeliveryFailed:
		return textDeliveryFailed
	default:
		return textInternalError
	}
}

func failureText(reason domain.FailureReason) string {
	switch reason {
	case domain.ReasonTimeout:
		return "Download timeout"
	case domain.ReasonUnavailable:
		return "Video unavailable"
	case domain.ReasonPrivate:
		return "Private video"
	case domain.ReasonNotFound:
		return "Video not found"
	case domain.ReasonNoArtifact:
		return "No file generated"
	default:
		return "Download failed"
	}
}

func captionText(label string, sizeMB float64) string {
	return fmt.Sprintf("🎵 <b>%s</b>\n💾 %.1fMB", html.EscapeString(label), sizeMB)
}

func formatMB(mb float64) string {
	return humanize.FtoaWithDigits(mb, 1) + "MB"
}

func formatRetention(minutes float64) string {
	if minutes == 1 {
		return "1 minute"
	}
	return humanize.FtoaWithDigits(minutes, 1) + " minutes"
}

func countTotal(counts map[domain.Outcome]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
