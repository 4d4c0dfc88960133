package app

// Navigator receives the navigation side effects of mutations and view
// errors. Hosts embed this to move their UI; headless callers can use
// NopNavigator.
type Navigator interface {
	NavigateHome()
	NavigateLogin()
	NavigateRegister()
	NavigateArticle(slug string)
	NavigateProfile(username string)
}

// NopNavigator ignores every navigation request.
type NopNavigator struct{}

func (NopNavigator) NavigateHome()                   {}
func (NopNavigator) NavigateLogin()                  {}
func (NopNavigator) NavigateRegister()               {}
func (NopNavigator) NavigateArticle(slug string)     {}
func (NopNavigator) NavigateProfile(username string) {}
