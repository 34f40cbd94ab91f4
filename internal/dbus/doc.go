// Package dbus locates and drives the WeChat StatusNotifierItem on the user's
// session bus. It lists the bus names, confirms the tray item whose Id
// property is "wechat", and then either activates the item (raising the main
// window) or clicks the Quit entry of its com.canonical.dbusmenu menu.
package dbus
