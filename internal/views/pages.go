package views

import (
	"html/template"
	"strings"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"rez_app_echo/internal/services"
)

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	// money formats a minor-unit amount in major units
	"money": func(minor int64) string {
		return decimal.New(minor, -2).StringFixed(2)
	},
}

// ErrorPageProps is rendered by the HTTP error handler
type ErrorPageProps struct {
	PageProps
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
	BackText     string
}

var errorPage = page("error", `{{define "content"}}
<div class="card">
<h1 class="err">{{.Data.ErrorTitle}}</h1>
<p>{{.Data.ErrorMessage}}</p>
{{if .Data.BackLink}}<a class="btn" href="{{.Data.BackLink}}">{{.Data.BackText}}</a>{{else}}<a class="btn" href="/">Back to home</a>{{end}}
</div>
{{end}}`, funcs)

func ErrorPage(props ErrorPageProps) templ.Component {
	return render(errorPage, props.PageProps, props)
}

// Payment result states
const (
	PaymentStateSuccess = "success"
	PaymentStatePending = "pending"
	PaymentStateExpired = "expired"
	PaymentStateFailed  = "failed"
)

// PaymentResultProps describes a checkout session after the hosted page returned
type PaymentResultProps struct {
	PageProps
	State         string
	SessionID     string
	Credits       int64
	AmountTotal   int64
	Currency      string
	Email         string
	CustomerName  string
	Balance       int64
	PaymentStatus string
}

var paymentResultPage = page("payment", `{{define "content"}}
{{with .Data}}
<div class="card">
{{if eq .State "success"}}
<h1 class="ok">Payment successful</h1>
<p>{{.Credits}} credits will be added to your account shortly.</p>
{{else if eq .State "pending"}}
<h1 class="warn">Payment processing</h1>
<p>We are waiting for the payment provider to confirm your payment. Your credits will appear once it is confirmed.</p>
{{else if eq .State "expired"}}
<h1 class="err">Checkout expired</h1>
<p>This checkout session expired before it was paid. No charge was made.</p>
{{else}}
<h1 class="err">Payment not completed</h1>
<p>The payment did not go through. No credits were added.</p>
{{end}}
<table>
<tr><td class="muted">Reference</td><td>{{.SessionID}}</td></tr>
<tr><td class="muted">Amount</td><td>{{upper .Currency}} {{money .AmountTotal}}</td></tr>
<tr><td class="muted">Credits</td><td>{{.Credits}}</td></tr>
{{if .CustomerName}}<tr><td class="muted">Name</td><td>{{.CustomerName}}</td></tr>{{end}}
{{if .Email}}<tr><td class="muted">Email</td><td>{{.Email}}</td></tr>{{end}}
<tr><td class="muted">Current balance</td><td>{{.Balance}} credits</td></tr>
</table>
<p><a class="btn" href="/purchase">Buy more credits</a></p>
</div>
{{end}}
{{end}}`, funcs)

func PaymentResult(props PaymentResultProps) templ.Component {
	return render(paymentResultPage, props.PageProps, props)
}

// PurchasePageProps lists the packages next to the caller's balance
type PurchasePageProps struct {
	PageProps
	Credits        int64
	Packages       []services.CreditPackage
	ConversionRate string
	Currency       string
	PublishableKey string
	AuthID         string
}

var purchasePage = page("purchase", `{{define "content"}}
{{with .Data}}
<div class="card">
<h1>Buy credits</h1>
<p>Current balance: <strong id="balance">{{.Credits}}</strong> credits</p>
</div>
<div class="grid">
{{range .Packages}}
<div class="card">
<h2>{{.Name}}{{if .Popular}} <small class="ok">Popular</small>{{end}}</h2>
<p class="muted">{{.Description}}</p>
<p><strong>{{upper $.Data.Currency}} {{.Price}}</strong> for {{.Credits}} credits</p>
<ul>{{range .Benefits}}<li>{{.}}</li>{{end}}</ul>
<button data-price="{{.Price}}" data-credits="{{.Credits}}" class="buy">Buy</button>
</div>
{{end}}
</div>
<div class="card">
<h2>Custom top-up</h2>
<p class="muted">Every {{upper .Currency}} 1 buys {{.ConversionRate}} credits.</p>
<input id="topup" type="number" min="1" step="1" placeholder="Amount">
<button id="topup-buy">Top up</button>
<p id="checkout-error" class="err"></p>
</div>
<script src="https://js.stripe.com/v3/"></script>
<script>
(function () {
  var stripe = Stripe({{.PublishableKey}});
  var clerkId = {{.AuthID}};
  var rate = parseFloat({{.ConversionRate}});
  function checkout(price, credits) {
    fetch("/api/checkout-sessions/create", {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify({price: price, credits: credits, clerkId: clerkId})
    }).then(function (res) { return res.json(); }).then(function (body) {
      if (!body.id) { throw new Error(body.errorMessage || body.error || "Checkout failed"); }
      return stripe.redirectToCheckout({sessionId: body.id});
    }).catch(function (err) {
      document.getElementById("checkout-error").textContent = err.message;
    });
  }
  document.querySelectorAll("button.buy").forEach(function (btn) {
    btn.addEventListener("click", function () {
      checkout(parseFloat(btn.dataset.price), parseInt(btn.dataset.credits, 10));
    });
  });
  document.getElementById("topup-buy").addEventListener("click", function () {
    var price = parseFloat(document.getElementById("topup").value);
    checkout(price, Math.floor(price * rate));
  });
})();
</script>
{{end}}
{{end}}`, funcs)

func Purchase(props PurchasePageProps) templ.Component {
	return render(purchasePage, props.PageProps, props)
}

// LoginPageProps carries the public identity provider settings
type LoginPageProps struct {
	PageProps
	FirebaseAPIKey     string
	FirebaseAuthDomain string
	FirebaseProjectID  string
	Redirect           string
	Error              string
}

var loginPage = page("login", `{{define "content"}}
{{with .Data}}
<div class="card">
<h1>Sign in to Rez</h1>
{{if .Error}}<p class="err">{{.Error}}</p>{{end}}
<button id="google-login">Continue with Google</button>
<p id="login-error" class="err"></p>
</div>
<script type="module">
import { initializeApp } from "https://www.gstatic.com/firebasejs/10.12.0/firebase-app.js";
import { getAuth, GoogleAuthProvider, signInWithPopup } from "https://www.gstatic.com/firebasejs/10.12.0/firebase-auth.js";

const app = initializeApp({apiKey: {{.FirebaseAPIKey}}, authDomain: {{.FirebaseAuthDomain}}, projectId: {{.FirebaseProjectID}}});
const auth = getAuth(app);
document.getElementById("google-login").addEventListener("click", async () => {
  try {
    const cred = await signInWithPopup(auth, new GoogleAuthProvider());
    const token = await cred.user.getIdToken();
    const res = await fetch("/auth/login", {method: "POST", headers: {Authorization: "Bearer " + token}});
    if (!res.ok) { throw new Error((await res.json()).error || "Login failed"); }
    window.location.href = {{.Redirect}};
  } catch (err) {
    document.getElementById("login-error").textContent = err.message;
  }
});
</script>
{{end}}
{{end}}`, funcs)

func Login(props LoginPageProps) templ.Component {
	return render(loginPage, props.PageProps, props)
}
