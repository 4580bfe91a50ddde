package qcat

import "fmt"

// Responses sent to clients. The spelling matches deployed clients.
const (
	MsgLoggedIn           = "Logged in Succesfully"
	MsgAuthFailed         = "Authentication failed!"
	MsgExiting            = "Exiting"
	MsgInvalidChoice      = "Invalid Choice"
	MsgInvalidLoginOption = "Invalid login option"
	MsgOperationFailed    = "Operation could not be performed"
	MsgInvalidRequest     = "Invalid request"
	MsgInvalidBookDetails = "Invalid book details"
)

// Patron menu selectors.
const (
	PatronRent   int32 = 1
	PatronReturn int32 = 2
	PatronSearch int32 = 3
	PatronExit   int32 = 4
)

// Admin menu selectors.
const (
	AdminAdd    int32 = 1
	AdminDelete int32 = 2
	AdminModify int32 = 3
	AdminSearch int32 = 4
	AdminExit   int32 = 5
)

func msgMemberLoggedIn(id int) string {
	return fmt.Sprintf("Member with registered ID '%d' logged in succesfully", id)
}

func msgBookAdded(id int) string {
	return fmt.Sprintf("Book added with ID: %d", id)
}

func msgBookDone(id int, verb string) string {
	return fmt.Sprintf("Book with ID %d has been %s", id, verb)
}

func msgBookNotFound(id int) string {
	return fmt.Sprintf("Book with ID %d not found", id)
}

func msgNotRentable(id int) string {
	return fmt.Sprintf("Book with ID %d not found or already rented", id)
}

func msgNotReturnable(id int) string {
	return fmt.Sprintf("Book with ID %d not found or not rented", id)
}
