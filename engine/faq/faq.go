// Package faq holds the preset slash-command answers for questions common
// enough that they never need to hit the retrieval pipeline.
package faq

import "strings"

// Command pairs a slash-command name with its menu description.
type Command struct {
	Name        string
	Description string
}

// Commands lists the registered commands in menu order.
func Commands() []Command {
	return []Command{
		{Name: "start", Description: "Welcome message"},
		{Name: "help", Description: "Show all commands"},
		{Name: "hackathon", Description: "About setting up hackathons"},
		{Name: "judging", Description: "Judging process"},
		{Name: "submission", Description: "Project submissions"},
		{Name: "team", Description: "Team management"},
		{Name: "tracks", Description: "Tracks and prizes"},
		{Name: "support", Description: "Get additional help"},
	}
}

// Lookup returns the preset answer for a command name, accepting a leading
// slash and any platform suffix like "/help@guidebot".
func Lookup(cmd string) (string, bool) {
	cmd = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cmd)), "/")
	if idx := strings.Index(cmd, "@"); idx != -1 {
		cmd = cmd[:idx]
	}
	resp, ok := responses[cmd]
	return resp, ok
}

var responses = map[string]string{
	"start": `👋 **Welcome to the Hackfolio Support Bot!**

I'm here to help answer questions about hackathons on Hackfolio.

**Quick Commands:**
/help - Show all commands
/hackathon - About setting up hackathons
/judging - Judging process
/submission - Project submissions
/team - Team management
/tracks - Tracks and prizes
/support - Get additional help`,

	"help": `📚 **Available Commands:**

/hackathon - Learn about creating and joining hackathons
/judging - Understand the judging process
/submission - How to submit your project
/team - Creating and managing teams
/tracks - How to add tracks and prizes
/support - Get additional help

💡 You can also ask me any question directly, and I'll search our documentation!`,

	"hackathon": `🎯 **Hackathons on Hackfolio**

**For Organizers:**

**Step 1: Get Started**
• Go to https://org.hackfolio.co/ and click "Organize New"
• Select your hackathon type and fill out the required info

**Step 2: Provide Details**
• Name, tagline, and description
• Team size and brand assets
• Application and submission dates

**Step 3: Submit for Verification**
• Complete all details to reach 100% completion
• Click "Submit for Verification"
• Our team reviews and gets back within 24 hours to take your hackathon live!

Need more help? Ask me specific questions or use /support`,

	"judging": `⚖️ **Judging Process**

**For Organizers - Setting Up Judging:**

**Step 1: Add Judges**
• Go to the "Judges and Speakers" tab in hackathon setup
• Add judges, mentors, or speakers and their email addresses
• Choose judging mode (Main or Sponsor)

📖 Guide: https://guide.hackfolio.co/docs/guide/setting-up-your-hackathon/judges-tab

**Step 2: Set the Judging Duration**
• Configure the judging period from the organizer dashboard

**Step 3: Allocate Projects**
• Assign projects to the respective judges

**For Judges:**
1. Create a Hackfolio account (mandatory)
2. Open the judging portal link for your hackathon
3. Check your email for the invitation link

**Judging Modes:**
• **Online Judging** - Remote evaluation
• **Offline Judging** - In-person review
• **Quadratic Voting** - Community-based
• **Organizer Judging** - Direct review`,

	"submission": `📤 **Project Submission**

**How to Submit:**
1. Go to your hackathon dashboard
2. Click "Submit Project"
3. Enter project details: title, tagline, description, tech stack, demo link
4. Submit before the deadline!

💡 You can keep editing your submission until the deadline closes.`,

	"team": `👥 **Team Management**

**Creating a Team:**
1. Apply to the hackathon first
2. Open the "Team" tab on your dashboard
3. Create a team and share the invite code with teammates

**Joining a Team:**
• Ask your team lead for the invite code and enter it on the "Team" tab

💡 Team size limits are set per hackathon by the organizers.`,

	"tracks": `🏆 **Tracks and Prizes**

**For Organizers:**
1. Open the "Prizes" tab in hackathon setup
2. Add tracks with a name and description
3. Attach prizes to each track

**For Participants:**
• Pick the tracks your project competes in when you submit.

📖 Guide: https://guide.hackfolio.co/docs/guide/setting-up-your-hackathon/prizes-tab`,

	"support": `🆘 **Need More Help?**

• Ask me any question directly and I'll search the documentation
• Browse the full guide: https://guide.hackfolio.co/
• Still stuck? An organizer will pick up escalated questions in the support channels.`,
}
