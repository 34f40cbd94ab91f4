package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/wechat-universal/internal/applet"
	"github.com/jmylchreest/wechat-universal/internal/config"
)

const startHelpEN = ` (--data [wechat data]) (--bind [custom bind] (--bind ...)) (--binds-config [file]) (--ime [ime]) (--dry-run) (--help)

    --data [wechat data]	Path to WeChat data folder, absolute path, or relative path to user home, default: ~/` + config.DefaultDataDir + `, as environment: ` + config.EnvDataDir + `
    --bind [custom bind]	Custom bindings, could be specified multiple times, absolute path, or relative path to user home, as environment: ` + config.EnvBinds + ` (colon ':' separated like PATH)
    --binds-config [file]	Path to text file that contains one --bind value per line, default: ~/.config/wechat-universal/binds.list, as environment: ` + config.EnvBindsConfig + `
    --ime [input method]	Apply IME-specific workaround, support: fcitx (also for 5), ibus, special: none, auto, default: auto, as environment: ` + config.EnvIME + `
    --dry-run	Print the sandbox command instead of running it
    --config [file]	Config file, default: ~/.config/wechat-universal/config.toml
    --verbose	Enable verbose logging
    --help
`

const startHelpCN = ` (--data [微信数据文件夹]) (--bind [自定义绑定挂载] (--bind ...)) (--binds-config [文件]) (--ime [输入法]) (--dry-run) (--help)

    --data [微信数据文件夹]	微信数据文件夹的路径，绝对路径，或相对于用户HOME的相对路径。默认：~/` + config.DefaultDataDir + `；环境变量：` + config.EnvDataDir + `
    --bind [自定义绑定挂载]	自定义的绑定挂载，可被声明多次，绝对路径，或相对于用户HOME的相对路径。环境变量：` + config.EnvBinds + ` （用冒号:分隔，与PATH相似）
    --binds-config [文件]	以每行一个的方式列明应被绑定挂载的路径的纯文本配置文件，每行定义与--bind一致。默认：~/.config/wechat-universal/binds.list；环境变量：` + config.EnvBindsConfig + `
    --ime [输入法名称或特殊值]	应用输入法对应环境变量修改，可支持：fcitx (不论是否为5)，ibus；特殊值：none不应用，auto自动判断。默认：auto；环境变量：` + config.EnvIME + `
    --dry-run	仅打印沙盒启动命令，不实际运行
    --config [文件]	配置文件，默认：~/.config/wechat-universal/config.toml
    --verbose	输出调试日志
    --help
`

const stopHelpEN = ` (--wait (--timeout [duration])) (--help)

    Quit the running WeChat session by clicking "Quit" in its tray menu.

    --wait	Wait until the sandbox has exited
    --timeout [duration]	Maximum time to wait, default: 30s
    --config [file]	Config file, default: ~/.config/wechat-universal/config.toml
    --verbose	Enable verbose logging
    --help
`

const stopHelpCN = ` (--wait (--timeout [时长])) (--help)

    通过点击托盘菜单中的"退出"来关闭正在运行的微信。

    --wait	等待沙盒完全退出
    --timeout [时长]	最长等待时间，默认：30s
    --config [文件]	配置文件，默认：~/.config/wechat-universal/config.toml
    --verbose	输出调试日志
    --help
`

// printHelp writes usage for the applet, in Chinese when lang is zh_CN.
func printHelp(w io.Writer, which applet.Applet, arg0, lang string) {
	cn := strings.HasPrefix(lang, "zh_CN")

	var body string
	switch {
	case which == applet.Start && cn:
		body = startHelpCN
	case which == applet.Start:
		body = startHelpEN
	case cn:
		body = stopHelpCN
	default:
		body = stopHelpEN
	}

	fmt.Fprint(w, arg0+body)
}
