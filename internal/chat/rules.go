package chat

import (
	"fmt"
	"strings"
)

// DateTimeLayout formats the clock in date and time replies.
const DateTimeLayout = "Monday, January 2, 2006 at 3:04 PM"

// helpMarker in the previous bot reply means the user is answering an offer
// of help, so acknowledgements get a more specific follow-up.
const helpMarker = "help"

const (
	replyGreeting = "Hello 👋 Welcome to Customer Support. How can I assist you today?"
	replyDefault  = "I'm sorry, I didn't fully understand your request. " +
		"Could you please provide more details so I can assist you better?"
	replyHelp = "I can assist with:\n" +
		"• Order tracking\n" +
		"• Shipping information\n" +
		"• Returns & refunds\n" +
		"• Account issues\n" +
		"• Payment support\n\n" +
		"How can I help you today?"
)

// FunFacts are the replies of the fun fact rule, picked uniformly.
var FunFacts = []string{
	"Honey never spoils: archaeologists have found 3,000-year-old honey in Egyptian tombs that was still edible.",
	"Octopuses have three hearts and blue blood.",
	"The first online purchase was a Sting CD, sold in 1994.",
	"A day on Venus is longer than a year on Venus.",
	"Bananas are berries, but strawberries are not.",
}

type rule struct {
	name  string
	apply func(e *Engine, in input) (string, bool)
}

// supportRules is evaluated top to bottom. More specific phrases sit above
// the general ones they contain ("international shipping" above "shipping").
var supportRules = []rule{
	keywordRule("greeting", replyGreeting, "hello", "hi", "hey", "good morning", "good afternoon", "good evening"),
	keywordRule("how_are_you", "I'm here and ready to assist you 😊 How may I help you today?", "how are you"),
	keywordRule("farewell", "Thank you for contacting support. Have a great day! 👋", "bye", "goodbye", "see you"),

	ackRule("ack_yes",
		"Great 🙂 Which topic do you need help with: orders, shipping, returns, account or payments?",
		"Alright 🙂 How can I assist you further?",
		"yes", "yeah", "yep", "sure"),
	ackRule("ack_ok",
		"Okay 🙂 Tell me what you need help with and I'll guide you step by step.",
		"Sure 🙂 Could you please provide more details so I can assist you better?",
		"ok", "okay", "alright", "fine"),
	ackRule("ack_no",
		"No problem 😊 If you change your mind, just type 'help' to see what I can do.",
		"No problem 😊 Let me know if you need anything else.",
		"no", "nope", "nah", "not really"),
	keywordRule("thanks", "You're welcome 😊 Is there anything else I can help you with?", "thanks", "thank you"),

	keywordRule("order_cancel",
		"I can help you cancel your order. Please provide your Order ID. Orders can only be canceled before shipping.",
		"cancel order", "cancel my order"),
	keywordRule("order_id",
		"Thank you for providing your Order ID. Your order is currently being processed and will be shipped within 24-48 hours.",
		"order id"),
	keywordRule("order_track",
		"Sure 📦 Please provide your Order ID so I can help you track your order.",
		"track", "order status", "where is my order"),

	keywordRule("shipping_international",
		"🌍 Yes, we offer international shipping. Delivery times vary depending on your country.",
		"international shipping", "ship international", "deliver international"),
	keywordRule("shipping",
		"🚚 Standard delivery takes 3-5 business days. Express delivery takes 1-2 business days.",
		"shipping", "delivery time"),

	keywordRule("return_policy",
		"🔄 You can return products within 30 days of purchase. Items must be unused and in original packaging.",
		"return policy"),
	keywordRule("refund",
		"💰 Refunds are processed within 5-7 business days after we receive the returned item.",
		"refund"),

	keywordRule("password_reset",
		"🔐 To reset your password, click on 'Forgot Password' on the login page and follow the instructions sent to your email.",
		"reset password", "forgot password", "reset my password"),
	keywordRule("update_email",
		"📧 To update your email address, go to Account Settings > Personal Information.",
		"update email", "change email", "update my email"),
	keywordRule("delete_account",
		"⚠️ We're sorry to see you go. Please contact our support team at support@example.com to request account deletion.",
		"delete account", "delete my account"),

	keywordRule("payment_methods",
		"💳 We accept Credit/Debit Cards, UPI, Net Banking, and PayPal.",
		"payment methods", "payment options"),
	keywordRule("payment_failed",
		"If your payment failed, please check your bank balance or try another payment method.",
		"payment failed", "payment declined", "payment has failed", "payment was declined",
		"failed payment", "declined payment", "card declined", "card was declined"),

	{name: "date_time", apply: dateTimeRule("time", "date", "what day", "today's date")},
	{name: "fun_fact", apply: funFactRule("fun fact", "fact")},

	keywordRule("help", replyHelp, "help", "what can you do"),

	prefixRule("topic_question",
		"Good question about %s! I'm a customer support assistant, so I can't answer general questions, "+
			"but I can help with orders, shipping, returns, account issues and payments.",
		"what is ", "what's ", "who is ", "tell me about "),
}

// keywordRule matches when any phrase occurs in the message word by word.
func keywordRule(name, reply string, phrases ...string) rule {
	return rule{
		name: name,
		apply: func(_ *Engine, in input) (string, bool) {
			if in.hasAny(phrases) {
				return reply, true
			}
			return "", false
		},
	}
}

// ackRule matches a message that is exactly one of tokens. The reply depends
// on whether the previous bot turn offered help.
func ackRule(name, afterHelp, otherwise string, tokens ...string) rule {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}

	return rule{
		name: name,
		apply: func(_ *Engine, in input) (string, bool) {
			if _, ok := set[in.bare()]; !ok {
				return "", false
			}
			if strings.Contains(in.ctx.LastBotUtterance, helpMarker) {
				return afterHelp, true
			}
			return otherwise, true
		},
	}
}

// prefixRule matches a message starting with one of prefixes and puts the
// capitalized remainder into format. The remainder keeps the caller's case.
func prefixRule(name, format string, prefixes ...string) rule {
	return rule{
		name: name,
		apply: func(_ *Engine, in input) (string, bool) {
			for _, p := range prefixes {
				if !strings.HasPrefix(in.text, p) {
					continue
				}
				topic := strings.TrimRight(strings.TrimSpace(in.remainder(p)), "?!. ")
				if topic == "" {
					return "", false
				}
				return fmt.Sprintf(format, capitalize(topic)), true
			}
			return "", false
		},
	}
}

// remainder is the message after prefix, taken from the original text when
// lowercasing left the prefix bytes in place.
func (in input) remainder(prefix string) string {
	if len(in.raw) >= len(prefix) && strings.EqualFold(in.raw[:len(prefix)], prefix) {
		return in.raw[len(prefix):]
	}
	return in.text[len(prefix):]
}

func dateTimeRule(phrases ...string) func(*Engine, input) (string, bool) {
	return func(e *Engine, in input) (string, bool) {
		if !in.hasAny(phrases) {
			return "", false
		}
		return "🕒 It's " + e.now().Format(DateTimeLayout) + ".", true
	}
}

func funFactRule(phrases ...string) func(*Engine, input) (string, bool) {
	return func(e *Engine, in input) (string, bool) {
		if !in.hasAny(phrases) {
			return "", false
		}
		return "🤓 Fun fact: " + FunFacts[e.pick(len(FunFacts))], true
	}
}

func fmtClarify(prior string) string {
	return fmt.Sprintf("I'm not sure I followed. Earlier you mentioned %q. "+
		"Could you tell me a bit more about what you need?", prior)
}
