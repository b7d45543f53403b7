package ally

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xela07ax/instavibe/internal/domain"
)

// planPrompt — промпт планирования вечера. Жесткое требование единого
// JSON-объекта на выходе: фасад парсит его в domain.EventPlan.
func planPrompt(userName, plannedDate, locationPreference string, friends []string) string {
	friendsStr := strings.Join(friends, ", ")
	friendsJSON, _ := json.Marshal(friends)

	return fmt.Sprintf(`Plan a personalized night out for %[1]s with friends %[2]s on %[3]s, with the location or preference being "%[4]s".

Analyze friend interests (if possible, use Instavibe profiles or summarized interests) to create a tailored plan. Ensure the plan includes the date %[3]s.

Output the entire plan in a SINGLE, COMPLETE JSON object with the following structure. CRITICAL: The FINAL RESPONSE MUST BE ONLY THIS JSON. If any fields are missing or unavailable, INVENT them appropriately to complete the JSON structure. Do not return any conversational text or explanations. Just the raw, valid JSON.

{
"friends_name_list": %[5]s,
"event_name": "string",
"event_date": "%[3]s",
"event_description": "string",
"locations_and_activities": [
    {
    "name": "string",
    "latitude": 12.345,
    "longitude": -67.890,
    "address": "string or null",
    "description": "string"
    }
],
"post_to_go_out": "string"
}

"friends_name_list" is an array of strings: %[2]s. "event_name" is a concise, descriptive name for the event. "event_date" is a date in ISO 8601 format. "event_description" is an engaging summary of planned activities. "locations_and_activities" details each step of the plan with approximate coordinates (or null if not available). "post_to_go_out" is a short, catchy, and exciting text message from %[1]s to invite friends.`,
		userName, friendsStr, plannedDate, locationPreference, friendsJSON)
}

// postPrompt — промпт двухшагового постинга: сначала событие, затем
// пригласительный пост. Ответ агента должен быть только текстом.
func postPrompt(userName string, plan domain.EventPlan, inviteMessage string) string {
	planJSON, _ := json.MarshalIndent(plan, "", "  ")
	locationsJSON, _ := json.Marshal(plan.LocationsAndActivities)
	attendeesJSON, _ := json.Marshal(attendeeNames(plan.FriendsNameList, userName))

	return fmt.Sprintf(`You are an Orchestrator assistant for the Instavibe platform. User '%[1]s' has finalized an event plan and wants to:
1. Create the event on Instavibe.
2. Create an invite post for this event on Instavibe.

You have tools like list_remote_agents to discover available specialized agents and send_task(agent_name, message) to delegate tasks to them.
Your primary role is to understand the user's overall goal, identify the necessary steps, select the most appropriate remote agent(s) for those steps, and then send them clear instructions.

Confirmed Plan:
%[2]s

Invite Message (this is the exact text for the post content):
"%[3]s"

Your explicit tasks are, in this exact order:

TASK 1: Create the Event on Instavibe.
- First, identify a suitable remote agent that is capable of creating events on the Instavibe platform. Use your list_remote_agents tool if you need to refresh your knowledge of available agents and their capabilities.
- Once you have selected an appropriate agent, you MUST use your tool to instruct that agent to create the event.
- The message you send to the agent for this task should be a clear, natural language instruction. This message MUST include all necessary details for event creation, derived from the "Confirmed Plan" JSON:
    - Event Name: "%[4]s"
    - Event Description: "%[5]s"
    - Event Date: "%[6]s" (ensure this is in a standard date/time format like ISO 8601)
    - Locations: %[7]s (describe these locations clearly to the agent)
    - Attendees: %[8]s (this list includes the user '%[1]s' and their friends)
- Narrate your thought process: which agent you are selecting, and the natural language message you are formulating for the tool to create the event.
- After the tool call is complete, briefly acknowledge its success based on the tool's response.

TASK 2: Create the Invite Post on Instavibe.
- Only after TASK 1 (event creation) is confirmed as successful, you MUST use your tool again.
- The message you send to the agent for this task should be a clear, natural language instruction to create a post. This message MUST include:
    - The author of the post: "%[1]s"
    - The content of the post: The "Invite Message" provided above ("%[3]s")
    - An instruction to associate this post with the event created in TASK 1 (by referencing its name: "%[4]s").
    - Indicate the sentiment is "positive" as it's an invitation.
- Narrate the natural language message you are formulating for the send_task tool to create the post.
- After the send_task tool call is complete, briefly acknowledge its success.

IMPORTANT INSTRUCTIONS FOR YOUR BEHAVIOR:
- Your primary role here is to orchestrate these two actions by selecting an appropriate remote agent and sending it clear, natural language instructions via your tool.
- Your responses during this process should be a stream of consciousness, primarily narrating your agent selection, the formulation of your natural language messages, and their outcomes.
- Do NOT output any JSON yourself. Your output must be plain text only, describing your actions.
- Conclude with a single, friendly success message confirming that you have instructed the remote agent to create both the event and the post. For example: "Alright, I've instructed the appropriate Instavibe agent to create the event '%[4]s' and to make the invite post for %[1]s!"`,
		userName, planJSON, inviteMessage, plan.EventName, plan.EventDescription, plan.EventDate, locationsJSON, attendeesJSON)
}

// attendeeNames — участники события: друзья плюс сам пользователь, без дублей.
func attendeeNames(friends []string, userName string) []string {
	seen := make(map[string]struct{}, len(friends)+1)
	out := make([]string, 0, len(friends)+1)
	for _, name := range append(append([]string{}, friends...), userName) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
