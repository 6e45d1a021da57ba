package kconnect

//go:generate mockgen -destination=mock_kconnect_test.go -package=kconnect . Producer,Consumer,TopicAdmin
