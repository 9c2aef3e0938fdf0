package main

import "github.com/andikar-tech/ms-go-wordpay/cmd"

func main() {
	cmd.Execute()
}
