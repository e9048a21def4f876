package email

import "fmt"

func WelcomeBody(name string, trialCredits int) (subject, body string) {
	subject = "Welcome to MediMind"
	body = fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account is ready. We added <strong>%d free credits</strong> so you can start a consultation right away.</p>
<p>— The MediMind team</p>`, name, trialCredits)
	return subject, body
}

func PaymentFailedBody(name string) (subject, body string) {
	subject = "Payment failed for your MediMind subscription"
	body = fmt.Sprintf(`<p>Hi %s,</p>
<p>We could not process the latest payment for your subscription. Please update your payment method in the billing portal to keep your plan active.</p>
<p>— The MediMind team</p>`, name)
	return subject, body
}

func SubscriptionActiveBody(name, planName string, credits int) (subject, body string) {
	subject = "Your MediMind subscription is active"
	body = fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for subscribing to the <strong>%s</strong> plan. %d credits were added to your account.</p>
<p>— The MediMind team</p>`, name, planName, credits)
	return subject, body
}
