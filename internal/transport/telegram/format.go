package telegram

import (
	"fmt"
	"strings"
	"time"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

const answerLetters = "ABCD"

func welcomeText(firstName string, intervalMinutes, totalBatches, remaining int) string {
	return fmt.Sprintf(`
🎯 Welcome to AtenuQuizBot, %s!

I automatically post quiz batches every %d minutes to help you practice.

📚 **Commands:**
• /quiz - Get current quiz manually
• /stats - View your quiz statistics
• /leaderboard - View current rankings
• /start - Show this message

📊 **Current Status:**
• Total Batches: %d
• Batches Remaining: %d
• Random Order: Enabled
• Anti-Abuse: Progressive Cooldown 🛡️

🛡️ **Answer Limits:**
• 1st attempt: Immediate
• 2nd attempt: 1-hour cooldown
• 3rd attempt: 6-hour cooldown
• 4th+ attempts: 24-hour cooldown

The next quiz will be posted automatically!
`, firstName, intervalMinutes, totalBatches, remaining)
}

func batchHeaderText(batch domain.QuizBatch, pos quiz.CyclePosition, now time.Time) string {
	return fmt.Sprintf(`
🎯 **Quiz Batch %d/%d** (Random Order)
📚 **%s**

⏰ Time: %s
📊 Questions: %d
🎲 Batch ID: %d
🛡️ Anti-Abuse: Progressive Cooldown

Answer each question by clicking the buttons below!
**Note:** Multiple attempts have progressive cooldowns (1h → 6h → 24h)
`, pos.Shown, pos.Total, batch.Title, now.Format("15:04"), len(batch.Questions), batch.ID)
}

func questionText(q domain.Question, number int) string {
	// long blank runs render poorly in Telegram Markdown
	prompt := strings.ReplaceAll(q.Prompt, "__________", "----------")
	return fmt.Sprintf(`
❓ **Question %d:**
%s

**Options:**
A. %s
B. %s
C. %s
D. %s

*Click your answer below:*
`, number, prompt, q.Options[0], q.Options[1], q.Options[2], q.Options[3])
}

func answerAckText(isCorrect bool) string {
	if isCorrect {
		return "Answer recorded! +3 points"
	}
	return "Answer recorded! -1 points"
}

func resultText(userName string, q domain.Question, selected int, out quiz.Outcome) string {
	selectedLetter := answerLetters[selected : selected+1]
	correctLetter := answerLetters[q.CorrectIndex : q.CorrectIndex+1]

	var b strings.Builder
	if out.IsCorrect {
		fmt.Fprintf(&b, "✅ **%s**, you selected %s - **Correct!** (+3 points)", userName, selectedLetter)
	} else {
		fmt.Fprintf(&b, "❌ **%s**, you selected %s - **Incorrect!** (-1 point)\nThe correct answer is %s.", userName, selectedLetter, correctLetter)
	}
	fmt.Fprintf(&b, "\n\n**Your Answer:** %s", q.Options[selected])
	fmt.Fprintf(&b, "\n**Correct Answer:** %s", q.Options[q.CorrectIndex])
	fmt.Fprintf(&b, "\n\n🛡️ **Anti-Abuse:** %s", out.CooldownMessage)
	return b.String()
}

func explanationSuffix(q domain.Question) string {
	return fmt.Sprintf("\n\n📝 **Explanation:**\n%s", q.Explanation)
}

func statsText(u domain.User) string {
	return fmt.Sprintf(`
📊 **Your Quiz Statistics**

🎯 **Overall Performance:**
• Questions Answered: %d
• Correct Answers: %d
• Overall Accuracy: %.1f%%
• Total Points: %d 🏆

📅 **Last Activity:** %s
🛡️ **Anti-Abuse**: Progressive Cooldown Active

Use /leaderboard to see rankings!
`, u.QuestionsAnswered, u.CorrectAnswers, u.Accuracy, u.Points, u.LastActivity.UTC().Format("2006-01-02 15:04:05"))
}

const noStatsText = "📊 You haven't answered any questions yet!"

func leaderboardText(snap quiz.Snapshot) string {
	return fmt.Sprintf(`
🏆 **LEADERBOARD** 🏆

📅 **Today (%s):**
%s

📊 **This Week:**
%s

📈 **This Month:**
%s

💡 **Scoring System:**
• Correct Answer: +3 points (+2 correct + 1 participation)
• Wrong Answer: -1 point (-2 wrong + 1 participation)
• Minimum Points: 0 (no negative balance)

🛡️ **Anti-Abuse System:**
• Progressive cooldowns prevent spam (1h → 6h → 24h)
• Fair competition for all participants
`, snap.Keys.Daily, formatTopUsers(snap.Daily), formatTopUsers(snap.Weekly), formatTopUsers(snap.Monthly))
}

func weeklyRecapText(weekStart, weekEnd time.Time, rows []domain.Standing) string {
	return fmt.Sprintf(`
🎉 **WEEKLY LEADERBOARD RESULTS** 🎉

📊 **Week of %s - %s**

🏆 **Top Performers:**
%s

Congratulations to all participants! 🎊

Keep participating in our quizzes to climb the leaderboard!
Next announcement: Next Sunday

Use /leaderboard to see current rankings anytime!
🛡️ **Fair Play**: Anti-abuse system ensures fair competition
`, weekStart.Format("January 02"), weekEnd.Format("January 02, 2006"), formatTopUsers(rows))
}

func monthlyRecapText(month time.Time, rows []domain.Standing) string {
	return fmt.Sprintf(`
🎉 **MONTHLY LEADERBOARD RESULTS** 🎉

📊 **Month of %s**

🏆 **Top Performers:**
%s

🌟 Congratulations to all participants! 🎊

Monthly leaderboard has been reset for the new month.
Keep participating in our quizzes!

Use /leaderboard to see current rankings anytime!
🛡️ **Fair Play**: Anti-abuse system ensures fair competition
`, month.Format("January 2006"), formatTopUsers(rows))
}

func formatTopUsers(rows []domain.Standing) string {
	if len(rows) == 0 {
		return "🚫 No participants yet"
	}

	medals := []string{"🥇", "🥈", "🥉"}
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		medal := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			medal = medals[i]
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d pts (%dQ, %.0f%%)",
			medal, truncateName(row.DisplayName, 15), row.Points, row.QuestionsAnswered, row.Accuracy))
	}
	return strings.Join(lines, "\n")
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit]) + "..."
}
